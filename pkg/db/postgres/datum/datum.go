package datum

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgtype"
	tdb "github.com/starwatch/tom/pkg/db"
	tpgerr "github.com/starwatch/tom/pkg/db/postgres/errors"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
)

type datumPG struct { // implements tdb.DatumInterface

	// connection pool for PostgreSQL
	pool tpool.Pool
}

func New(pool tpool.Pool) *datumPG {
	return &datumPG{pool: pool}
}

func asFloat8Array(values []float64) (*pgtype.Float8Array, error) {
	arr := &pgtype.Float8Array{}
	if values == nil {
		if err := arr.Set(nil); err != nil {
			return nil, err
		}
		return arr, nil
	}
	if err := arr.Set(values); err != nil {
		return nil, err
	}
	return arr, nil
}

func (d *datumPG) BulkRegister(ctx context.Context, datums []tdb.ReducedDatum) (int, error) {
	if len(datums) == 0 {
		return 0, nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, datum := range datums {
		valueList, err := asFloat8Array(datum.ValueList)
		if err != nil {
			return inserted, err
		}
		errorList, err := asFloat8Array(datum.ErrorList)
		if err != nil {
			return inserted, err
		}
		wavelengths, err := asFloat8Array(datum.Wavelengths)
		if err != nil {
			return inserted, err
		}

		tag, err := tx.Exec(
			ctx,
			`
			insert into "reduced_datum" (
				"target_id", "product_id", "data_type",
				"source_name", "source_location", "observer", "facility",
				"mjd", "timestamp", "value", "error", "value_unit", "filter",
				"value_list", "error_list", "wavelengths", "active"
			)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			on conflict do nothing
			`,
			datum.TargetId, datum.ProductId, string(datum.DataType),
			datum.SourceName, datum.SourceLocation, datum.Observer, datum.Facility,
			datum.MJD, datum.Timestamp, datum.Value, datum.Error,
			string(datum.ValueUnit), datum.Filter,
			valueList, errorList, wavelengths, datum.Active,
		)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (d *datumPG) Find(ctx context.Context, query tdb.DatumQuery) ([]tdb.ReducedDatum, error) {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	conds := []string{}
	args := []interface{}{}
	if query.TargetId != "" {
		args = append(args, query.TargetId)
		conds = append(conds, fmt.Sprintf(`"target_id" = $%d`, len(args)))
	}
	if query.DataType != "" {
		args = append(args, string(query.DataType))
		conds = append(conds, fmt.Sprintf(`"data_type" = $%d`, len(args)))
	}
	if query.ActiveOnly {
		conds = append(conds, `"active"`)
	}

	where := ""
	if 0 < len(conds) {
		where = "where " + strings.Join(conds, " and ")
	}

	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "target_id", "product_id", "data_type",
			"source_name", "source_location", "observer", "facility",
			"mjd", "timestamp", "value", "error", "value_unit", "filter",
			"value_list", "error_list", "wavelengths", "active"
		from "reduced_datum" `+where+` order by "mjd"`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []tdb.ReducedDatum{}
	for rows.Next() {
		datum := tdb.ReducedDatum{}
		var dataType, valueUnit string
		valueList := &pgtype.Float8Array{}
		errorList := &pgtype.Float8Array{}
		wavelengths := &pgtype.Float8Array{}
		if err := rows.Scan(
			&datum.Id, &datum.TargetId, &datum.ProductId, &dataType,
			&datum.SourceName, &datum.SourceLocation, &datum.Observer, &datum.Facility,
			&datum.MJD, &datum.Timestamp, &datum.Value, &datum.Error,
			&valueUnit, &datum.Filter,
			valueList, errorList, wavelengths, &datum.Active,
		); err != nil {
			return nil, err
		}
		datum.DataType = tdb.DataProductType(dataType)
		datum.ValueUnit = tdb.ValueUnit(valueUnit)
		if valueList.Status == pgtype.Present {
			if err := valueList.AssignTo(&datum.ValueList); err != nil {
				return nil, err
			}
		}
		if errorList.Status == pgtype.Present {
			if err := errorList.AssignTo(&datum.ErrorList); err != nil {
				return nil, err
			}
		}
		if wavelengths.Status == pgtype.Present {
			if err := wavelengths.AssignTo(&datum.Wavelengths); err != nil {
				return nil, err
			}
		}
		found = append(found, datum)
	}
	return found, nil
}

func (d *datumPG) SetActive(ctx context.Context, id int64, active bool) error {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`update "reduced_datum" set "active" = $1 where "id" = $2`,
		active, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "reduced_datum", Identity: fmt.Sprint(id)}
	}
	return nil
}
