package observation

import (
	"context"
	"encoding/json"
	"fmt"

	tdb "github.com/starwatch/tom/pkg/db"
	tpgerr "github.com/starwatch/tom/pkg/db/postgres/errors"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
)

type observationPG struct { // implements tdb.ObservationInterface

	// connection pool for PostgreSQL
	pool tpool.Pool
}

func New(pool tpool.Pool) *observationPG {
	return &observationPG{pool: pool}
}

func (o *observationPG) Register(ctx context.Context, record tdb.ObservationRecord) (int, error) {
	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	parameters, err := json.Marshal(record.Parameters)
	if err != nil {
		return 0, err
	}

	var id int
	if err := conn.QueryRow(
		ctx,
		`
		insert into "observation_record" (
			"target_id", "facility", "observation_id", "status",
			"parameters", "scheduled_start", "scheduled_end", "created", "modified"
		)
		values ($1, $2, $3, $4, $5, $6, $7, now(), now())
		returning "id"
		`,
		record.TargetId, record.Facility, record.ObservationId, record.Status,
		parameters, record.ScheduledStart, record.ScheduledEnd,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (o *observationPG) FindByTarget(ctx context.Context, targetId string) ([]tdb.ObservationRecord, error) {
	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "target_id", "facility", "observation_id", "status",
			"parameters", "scheduled_start", "scheduled_end", "created", "modified"
		from "observation_record"
		where "target_id" = $1
		order by "scheduled_start" nulls last
		`,
		targetId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []tdb.ObservationRecord{}
	for rows.Next() {
		record := tdb.ObservationRecord{}
		var parameters []byte
		if err := rows.Scan(
			&record.Id, &record.TargetId, &record.Facility,
			&record.ObservationId, &record.Status,
			&parameters, &record.ScheduledStart, &record.ScheduledEnd,
			&record.Created, &record.Modified,
		); err != nil {
			return nil, err
		}
		if 0 < len(parameters) {
			if err := json.Unmarshal(parameters, &record.Parameters); err != nil {
				return nil, err
			}
		}
		found = append(found, record)
	}
	return found, nil
}

func (o *observationPG) UpdateStatus(ctx context.Context, id int, status string) error {
	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`update "observation_record" set "status" = $1, "modified" = now() where "id" = $2`,
		status, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "observation_record", Identity: fmt.Sprint(id)}
	}
	return nil
}
