package user

import (
	"context"
	"fmt"

	tdb "github.com/starwatch/tom/pkg/db"
	tpgerr "github.com/starwatch/tom/pkg/db/postgres/errors"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
)

type groupPG struct { // implements tdb.GroupInterface

	// connection pool for PostgreSQL
	pool tpool.Pool
}

func NewGroup(pool tpool.Pool) *groupPG {
	return &groupPG{pool: pool}
}

func (g *groupPG) Register(ctx context.Context, name string) (int, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var id int
	if err := conn.QueryRow(
		ctx, `insert into "groups" ("name") values ($1) returning "id"`, name,
	).Scan(&id); err != nil {
		return 0, asDuplication(err, "groups", name)
	}
	return id, nil
}

func (g *groupPG) Find(ctx context.Context) ([]tdb.Group, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	groups := map[int]tdb.Group{}
	order := []int{}
	{
		rows, err := conn.Query(ctx, `select "id", "name" from "groups" order by "name"`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			group := tdb.Group{}
			if err := rows.Scan(&group.Id, &group.Name); err != nil {
				return nil, err
			}
			groups[group.Id] = group
			order = append(order, group.Id)
		}
	}

	{
		rows, err := conn.Query(
			ctx,
			`
			select "gm"."group_id", "u"."username"
			from "group_member" as "gm"
			inner join "users" as "u" on "u"."id" = "gm"."user_id"
			`,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var groupId int
			var username string
			if err := rows.Scan(&groupId, &username); err != nil {
				return nil, err
			}
			if group, ok := groups[groupId]; ok {
				group.Members = append(group.Members, username)
				groups[groupId] = group
			}
		}
	}

	found := make([]tdb.Group, 0, len(order))
	for _, id := range order {
		found = append(found, groups[id])
	}
	return found, nil
}

func (g *groupPG) Update(ctx context.Context, id int, group tdb.Group) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(
		ctx, `update "groups" set "name" = $1 where "id" = $2`, group.Name, id,
	)
	if err != nil {
		return asDuplication(err, "groups", group.Name)
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "groups", Identity: fmt.Sprint(id)}
	}

	if _, err := tx.Exec(
		ctx, `delete from "group_member" where "group_id" = $1`, id,
	); err != nil {
		return err
	}
	for _, username := range group.Members {
		tag, err := tx.Exec(
			ctx,
			`
			insert into "group_member" ("group_id", "user_id")
			select $1, "id" from "users" where "username" = $2
			`,
			id, username,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() < 1 {
			return tpgerr.Missing{Table: "users", Identity: username}
		}
	}

	return tx.Commit(ctx)
}

func (g *groupPG) Delete(ctx context.Context, id int) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `delete from "groups" where "id" = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "groups", Identity: fmt.Sprint(id)}
	}
	return nil
}
