package datum

import (
	"context"

	tdb "github.com/starwatch/tom/pkg/db"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
)

type cadencePG struct { // implements tdb.CadenceInterface

	// connection pool for PostgreSQL
	pool tpool.Pool
}

func NewCadence(pool tpool.Pool) *cadencePG {
	return &cadencePG{pool: pool}
}

func (c *cadencePG) Find(ctx context.Context) ([]tdb.BrokerCadence, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "target_id", "broker", "last_update", "inserted_rows"
		from "broker_cadence"
		order by "last_update"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []tdb.BrokerCadence{}
	for rows.Next() {
		cadence := tdb.BrokerCadence{}
		if err := rows.Scan(
			&cadence.TargetId, &cadence.Broker,
			&cadence.LastUpdate, &cadence.InsertedRows,
		); err != nil {
			return nil, err
		}
		found = append(found, cadence)
	}
	return found, nil
}

func (c *cadencePG) Upsert(ctx context.Context, cadence tdb.BrokerCadence) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "broker_cadence" ("target_id", "broker", "last_update", "inserted_rows")
		values ($1, $2, $3, $4)
		on conflict ("target_id", "broker") do update
			set "last_update" = excluded."last_update",
				"inserted_rows" = excluded."inserted_rows"
		`,
		cadence.TargetId, cadence.Broker, cadence.LastUpdate, cadence.InsertedRows,
	)
	return err
}

func (c *cadencePG) Delete(ctx context.Context, targetId string) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx, `delete from "broker_cadence" where "target_id" = $1`, targetId,
	)
	return err
}
