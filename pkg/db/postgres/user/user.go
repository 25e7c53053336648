package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	tdb "github.com/starwatch/tom/pkg/db"
	tpgerr "github.com/starwatch/tom/pkg/db/postgres/errors"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
	"github.com/starwatch/tom/pkg/utils"
)

type userPG struct { // implements tdb.UserInterface

	// connection pool for PostgreSQL
	pool tpool.Pool
}

func New(pool tpool.Pool) *userPG {
	return &userPG{pool: pool}
}

func asDuplication(err error, table, identity string) error {
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UniqueViolation {
		return tpgerr.Duplication{Table: table, Identity: identity}
	}
	return err
}

const bodyColumns = `
	"id", "username", "email", "first_name", "last_name", "superuser",
	"latex_name", "affiliation", "orcid_id", "address", "about", "created"
`

func (u *userPG) Register(ctx context.Context, user tdb.User, hashedPassword string) (int, error) {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int
	if err := tx.QueryRow(
		ctx,
		`
		insert into "users" (
			"username", "email", "first_name", "last_name", "hashed_password",
			"superuser", "latex_name", "affiliation", "orcid_id", "address", "about",
			"created"
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		returning "id"
		`,
		user.Username, user.Email, user.FirstName, user.LastName, hashedPassword,
		user.Superuser, user.LatexName, user.Affiliation, user.OrcidId,
		user.Address, user.About,
	).Scan(&id); err != nil {
		return 0, asDuplication(err, "users", user.Username)
	}

	groups := user.Groups
	if !utils.Contains(groups, tdb.PublicGroup) {
		groups = append(groups, tdb.PublicGroup)
	}
	if err := setMembership(ctx, tx, id, groups); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// setMembership makes the user a member of exactly the named groups.
// Unknown group names are created on the fly.
func setMembership(ctx context.Context, tx tpool.Tx, userId int, groups []string) error {
	if _, err := tx.Exec(
		ctx, `delete from "group_member" where "user_id" = $1`, userId,
	); err != nil {
		return err
	}

	for _, name := range utils.Deduped(groups) {
		var groupId int
		if err := tx.QueryRow(
			ctx,
			`
			insert into "groups" ("name") values ($1)
			on conflict ("name") do update set "name" = excluded."name"
			returning "id"
			`,
			name,
		).Scan(&groupId); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "group_member" ("group_id", "user_id") values ($1, $2)
			on conflict do nothing
			`,
			groupId, userId,
		); err != nil {
			return err
		}
	}
	return nil
}

func (u *userPG) Get(ctx context.Context, ids []int) (map[int]tdb.User, error) {
	if len(ids) == 0 {
		return map[int]tdb.User{}, nil
	}

	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	result := map[int]tdb.User{}
	{
		rows, err := conn.Query(
			ctx,
			`select `+bodyColumns+` from "users" where "id" = any($1::int[])`,
			ids,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			body := tdb.UserBody{}
			if err := rows.Scan(
				&body.Id, &body.Username, &body.Email, &body.FirstName, &body.LastName,
				&body.Superuser, &body.LatexName, &body.Affiliation, &body.OrcidId,
				&body.Address, &body.About, &body.Created,
			); err != nil {
				return nil, err
			}
			result[body.Id] = tdb.User{UserBody: body}
		}
	}

	{
		rows, err := conn.Query(
			ctx,
			`
			select "gm"."user_id", "g"."name"
			from "group_member" as "gm"
			inner join "groups" as "g" on "g"."id" = "gm"."group_id"
			where "gm"."user_id" = any($1::int[])
			`,
			ids,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var userId int
			var group string
			if err := rows.Scan(&userId, &group); err != nil {
				return nil, err
			}
			if user, ok := result[userId]; ok {
				user.Groups = append(user.Groups, group)
				result[userId] = user
			}
		}
	}

	return result, nil
}

func (u *userPG) GetByUsername(ctx context.Context, username string) (tdb.User, string, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return tdb.User{}, "", err
	}
	defer conn.Release()

	var id int
	var hashedPassword string
	if err := conn.QueryRow(
		ctx,
		`select "id", "hashed_password" from "users" where "username" = $1`,
		username,
	).Scan(&id, &hashedPassword); err != nil {
		return tdb.User{}, "", tpgerr.Missing{Table: "users", Identity: username}
	}

	users, err := u.Get(ctx, []int{id})
	if err != nil {
		return tdb.User{}, "", err
	}
	user, ok := users[id]
	if !ok {
		return tdb.User{}, "", tpgerr.Missing{Table: "users", Identity: username}
	}
	return user, hashedPassword, nil
}

func (u *userPG) Find(ctx context.Context) ([]int, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `select "id" from "users" order by "username"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found = append(found, id)
	}
	return found, nil
}

func (u *userPG) Update(ctx context.Context, id int, user tdb.User) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(
		ctx,
		`
		update "users" set
			"username" = $1, "email" = $2, "first_name" = $3, "last_name" = $4,
			"superuser" = $5, "latex_name" = $6, "affiliation" = $7,
			"orcid_id" = $8, "address" = $9, "about" = $10
		where "id" = $11
		`,
		user.Username, user.Email, user.FirstName, user.LastName,
		user.Superuser, user.LatexName, user.Affiliation,
		user.OrcidId, user.Address, user.About,
		id,
	)
	if err != nil {
		return asDuplication(err, "users", user.Username)
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "users", Identity: fmt.Sprint(id)}
	}

	if err := setMembership(ctx, tx, id, user.Groups); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (u *userPG) UpdatePassword(ctx context.Context, id int, hashedPassword string) error {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`update "users" set "hashed_password" = $1 where "id" = $2`,
		hashedPassword, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "users", Identity: fmt.Sprint(id)}
	}
	return nil
}

func (u *userPG) Delete(ctx context.Context, id int) error {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `delete from "users" where "id" = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "users", Identity: fmt.Sprint(id)}
	}
	return nil
}
