package target

import (
	"context"
	"fmt"

	tdb "github.com/starwatch/tom/pkg/db"
	tpgerr "github.com/starwatch/tom/pkg/db/postgres/errors"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
)

type targetListPG struct { // implements tdb.TargetListInterface

	// connection pool for PostgreSQL
	pool tpool.Pool
}

func NewList(pool tpool.Pool) *targetListPG {
	return &targetListPG{pool: pool}
}

func (l *targetListPG) Register(ctx context.Context, name string) (int, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var id int
	if err := conn.QueryRow(
		ctx,
		`insert into "target_list" ("name", "created") values ($1, now()) returning "id"`,
		name,
	).Scan(&id); err != nil {
		return 0, asDuplication(err, "target_list", name)
	}
	return id, nil
}

func (l *targetListPG) Find(ctx context.Context) ([]tdb.TargetList, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	lists := map[int]tdb.TargetList{}
	order := []int{}
	{
		rows, err := conn.Query(
			ctx, `select "id", "name", "created" from "target_list" order by "name"`,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			list := tdb.TargetList{}
			if err := rows.Scan(&list.Id, &list.Name, &list.Created); err != nil {
				return nil, err
			}
			lists[list.Id] = list
			order = append(order, list.Id)
		}
	}

	{
		rows, err := conn.Query(
			ctx, `select "list_id", "target_id" from "target_list_member"`,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var listId int
			var targetId string
			if err := rows.Scan(&listId, &targetId); err != nil {
				return nil, err
			}
			if list, ok := lists[listId]; ok {
				list.TargetIds = append(list.TargetIds, targetId)
				lists[listId] = list
			}
		}
	}

	found := make([]tdb.TargetList, 0, len(order))
	for _, id := range order {
		found = append(found, lists[id])
	}
	return found, nil
}

func (l *targetListPG) Delete(ctx context.Context, id int) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `delete from "target_list" where "id" = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "target_list", Identity: fmt.Sprint(id)}
	}
	return nil
}

func (l *targetListPG) AddTargets(ctx context.Context, id int, targetIds []string) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(
		ctx, `select exists (select 1 from "target_list" where "id" = $1)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return tpgerr.Missing{Table: "target_list", Identity: fmt.Sprint(id)}
	}

	for _, targetId := range targetIds {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "target_list_member" ("list_id", "target_id")
			values ($1, $2)
			on conflict do nothing
			`,
			id, targetId,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (l *targetListPG) RemoveTargets(ctx context.Context, id int, targetIds []string) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`delete from "target_list_member" where "list_id" = $1 and "target_id" = any($2::varchar[])`,
		id, targetIds,
	)
	return err
}
