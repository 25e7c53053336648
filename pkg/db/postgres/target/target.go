package target

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	tdb "github.com/starwatch/tom/pkg/db"
	tpgerr "github.com/starwatch/tom/pkg/db/postgres/errors"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
	"github.com/starwatch/tom/pkg/targets"
)

type targetPG struct { // implements tdb.TargetInterface

	// connection pool for PostgreSQL
	pool tpool.Pool
}

func New(pool tpool.Pool) *targetPG {
	return &targetPG{pool: pool}
}

const bodyColumns = `
	"target_id", "name", "type",
	"ra", "dec", "epoch", "parallax", "pm_ra", "pm_dec",
	"galactic_lng", "galactic_lat", "distance", "distance_err",
	"scheme", "epoch_of_elements", "mean_anomaly", "arg_of_perihelion",
	"eccentricity", "lng_asc_node", "inclination", "mean_daily_motion",
	"semimajor_axis", "epoch_of_perihelion", "perihdist",
	"ephemeris_period", "ephemeris_epoch",
	"classification", "discovery_date", "mjd_last", "mag_last", "filter_last",
	"importance", "cadence_days", "priority", "sun_separation",
	"constellation", "description",
	"created", "modified"
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBody(s scanner) (tdb.TargetBody, error) {
	body := tdb.TargetBody{}
	var ttype, scheme string
	if err := s.Scan(
		&body.TargetId, &body.Name, &ttype,
		&body.RA, &body.Dec, &body.Epoch, &body.Parallax, &body.PMRA, &body.PMDec,
		&body.GalacticLng, &body.GalacticLat, &body.Distance, &body.DistanceErr,
		&scheme, &body.EpochOfElements, &body.MeanAnomaly, &body.ArgOfPerihelion,
		&body.Eccentricity, &body.LngAscNode, &body.Inclination, &body.MeanDailyMotion,
		&body.SemimajorAxis, &body.EpochOfPerihelion, &body.Perihdist,
		&body.EphemerisPeriod, &body.EphemerisEpoch,
		&body.Classification, &body.DiscoveryDate, &body.MJDLast, &body.MagLast, &body.FilterLast,
		&body.Importance, &body.CadenceDays, &body.Priority, &body.SunSeparation,
		&body.Constellation, &body.Description,
		&body.Created, &body.Modified,
	); err != nil {
		return tdb.TargetBody{}, err
	}
	body.Type = tdb.TargetType(ttype)
	body.Scheme = tdb.OrbitScheme(scheme)
	return body, nil
}

func bodyArgs(body tdb.TargetBody) []interface{} {
	return []interface{}{
		body.Name, string(body.Type),
		body.RA, body.Dec, body.Epoch, body.Parallax, body.PMRA, body.PMDec,
		body.GalacticLng, body.GalacticLat, body.Distance, body.DistanceErr,
		string(body.Scheme), body.EpochOfElements, body.MeanAnomaly, body.ArgOfPerihelion,
		body.Eccentricity, body.LngAscNode, body.Inclination, body.MeanDailyMotion,
		body.SemimajorAxis, body.EpochOfPerihelion, body.Perihdist,
		body.EphemerisPeriod, body.EphemerisEpoch,
		body.Classification, body.DiscoveryDate, body.MJDLast, body.MagLast, body.FilterLast,
		body.Importance, body.CadenceDays, body.Priority, body.SunSeparation,
		body.Constellation, body.Description,
	}
}

// placeholders $start, $start+1, ... $start+n-1
func placeholders(start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}

func asDuplication(err error, table, identity string) error {
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UniqueViolation {
		return tpgerr.Duplication{Table: table, Identity: identity}
	}
	return err
}

func (t *targetPG) Register(ctx context.Context, target tdb.Target) (string, error) {
	if err := target.Validate(); err != nil {
		return "", err
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	targetId := "tgt-" + uuid.NewString()

	args := append([]interface{}{targetId}, bodyArgs(target.TargetBody)...)
	if _, err := tx.Exec(
		ctx,
		`
		insert into "target" (`+bodyColumns+`)
		values (`+placeholders(1, len(args))+`, now(), now())
		`,
		args...,
	); err != nil {
		return "", asDuplication(err, "target", target.Name)
	}

	if err := insertAliases(ctx, tx, targetId, target.Aliases); err != nil {
		return "", err
	}
	if err := upsertExtras(ctx, tx, targetId, target.Extras); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return targetId, nil
}

func insertAliases(ctx context.Context, tx tpool.Tx, targetId string, aliases []tdb.TargetName) error {
	for _, alias := range aliases {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "target_name" ("target_id", "source_name", "name", "url")
			values ($1, $2, $3, $4)
			`,
			targetId, alias.SourceName, alias.Name, alias.URL,
		); err != nil {
			return asDuplication(err, "target_name", alias.SourceName+":"+alias.Name)
		}
	}
	return nil
}

func upsertExtras(ctx context.Context, tx tpool.Tx, targetId string, extras []tdb.TargetExtra) error {
	for _, extra := range extras {
		typed := extra.Typed()
		if _, err := tx.Exec(
			ctx,
			`
			insert into "target_extra"
				("target_id", "key", "value", "float_value", "bool_value", "time_value")
			values ($1, $2, $3, $4, $5, $6)
			on conflict ("target_id", "key") do update
				set "value" = excluded."value",
					"float_value" = excluded."float_value",
					"bool_value" = excluded."bool_value",
					"time_value" = excluded."time_value"
			`,
			targetId, typed.Key, typed.Value,
			typed.FloatValue, typed.BoolValue, typed.TimeValue,
		); err != nil {
			return err
		}
	}
	return nil
}

func (t *targetPG) Get(ctx context.Context, targetIds []string) (map[string]tdb.Target, error) {
	if len(targetIds) == 0 {
		return map[string]tdb.Target{}, nil
	}

	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	result := map[string]tdb.Target{}
	{
		rows, err := conn.Query(
			ctx,
			`select `+bodyColumns+` from "target" where "target_id" = any($1::varchar[])`,
			targetIds,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			body, err := scanBody(rows)
			if err != nil {
				return nil, err
			}
			result[body.TargetId] = tdb.Target{TargetBody: body}
		}
	}

	{
		rows, err := conn.Query(
			ctx,
			`
			select "target_id", "source_name", "name", "url"
			from "target_name"
			where "target_id" = any($1::varchar[])
			`,
			targetIds,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var targetId string
			alias := tdb.TargetName{}
			if err := rows.Scan(&targetId, &alias.SourceName, &alias.Name, &alias.URL); err != nil {
				return nil, err
			}
			if tgt, ok := result[targetId]; ok {
				tgt.Aliases = append(tgt.Aliases, alias)
				result[targetId] = tgt
			}
		}
	}

	{
		rows, err := conn.Query(
			ctx,
			`
			select "target_id", "key", "value", "float_value", "bool_value", "time_value"
			from "target_extra"
			where "target_id" = any($1::varchar[])
			`,
			targetIds,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var targetId string
			extra := tdb.TargetExtra{}
			if err := rows.Scan(
				&targetId, &extra.Key, &extra.Value,
				&extra.FloatValue, &extra.BoolValue, &extra.TimeValue,
			); err != nil {
				return nil, err
			}
			if tgt, ok := result[targetId]; ok {
				tgt.Extras = append(tgt.Extras, extra)
				result[targetId] = tgt
			}
		}
	}

	return result, nil
}

func (t *targetPG) Find(ctx context.Context, query tdb.TargetQuery) ([]string, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	conds := []string{}
	args := []interface{}{}

	if query.Name != "" {
		args = append(args, "%"+query.Name+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`("name" ilike $%d or "target_id" in (select "target_id" from "target_name" where "name" ilike $%d))`,
			n, n,
		))
	}
	if query.Type != "" {
		args = append(args, string(query.Type))
		conds = append(conds, fmt.Sprintf(`"type" = $%d`, len(args)))
	}
	if query.Classification != "" {
		args = append(args, "%"+query.Classification+"%")
		conds = append(conds, fmt.Sprintf(`"classification" ilike $%d`, len(args)))
	}
	if cone := query.Cone; cone != nil {
		// box prefilter at twice the radius. the exact separation is
		// checked on the scanned coordinates below.
		box := 2 * cone.Radius
		args = append(args, cone.RA-box, cone.RA+box, cone.Dec-box, cone.Dec+box)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`"ra" between $%d and $%d and "dec" between $%d and $%d`,
			n-3, n-2, n-1, n,
		))
	}

	where := ""
	if 0 < len(conds) {
		where = "where " + strings.Join(conds, " and ")
	}

	rows, err := conn.Query(
		ctx,
		`select "target_id", "ra", "dec" from "target" `+where+` order by "created" desc`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []string{}
	for rows.Next() {
		var targetId string
		var ra, dec *float64
		if err := rows.Scan(&targetId, &ra, &dec); err != nil {
			return nil, err
		}
		if cone := query.Cone; cone != nil {
			if ra == nil || dec == nil {
				continue
			}
			if !targets.InCone(cone.RA, cone.Dec, cone.Radius, *ra, *dec) {
				continue
			}
		}
		found = append(found, targetId)
	}

	return found, nil
}

func (t *targetPG) Update(ctx context.Context, targetId string, target tdb.Target) error {
	if err := target.Validate(); err != nil {
		return err
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	args := bodyArgs(target.TargetBody)
	sets := []string{}
	for i, col := range []string{
		"name", "type",
		"ra", "dec", "epoch", "parallax", "pm_ra", "pm_dec",
		"galactic_lng", "galactic_lat", "distance", "distance_err",
		"scheme", "epoch_of_elements", "mean_anomaly", "arg_of_perihelion",
		"eccentricity", "lng_asc_node", "inclination", "mean_daily_motion",
		"semimajor_axis", "epoch_of_perihelion", "perihdist",
		"ephemeris_period", "ephemeris_epoch",
		"classification", "discovery_date", "mjd_last", "mag_last", "filter_last",
		"importance", "cadence_days", "priority", "sun_separation",
		"constellation", "description",
	} {
		sets = append(sets, fmt.Sprintf(`"%s" = $%d`, col, i+1))
	}
	args = append(args, targetId)

	tag, err := tx.Exec(
		ctx,
		`update "target" set `+strings.Join(sets, ", ")+`, "modified" = now()
		where "target_id" = $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return asDuplication(err, "target", target.Name)
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "target", Identity: targetId}
	}

	// reconcile aliases: given sources are upserted, others removed.
	sources := make([]string, 0, len(target.Aliases))
	for _, alias := range target.Aliases {
		sources = append(sources, alias.SourceName)
	}
	if _, err := tx.Exec(
		ctx,
		`delete from "target_name" where "target_id" = $1 and "source_name" != all($2::varchar[])`,
		targetId, sources,
	); err != nil {
		return err
	}
	for _, alias := range target.Aliases {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "target_name" ("target_id", "source_name", "name", "url")
			values ($1, $2, $3, $4)
			on conflict ("target_id", "source_name") do update
				set "name" = excluded."name", "url" = excluded."url"
			`,
			targetId, alias.SourceName, alias.Name, alias.URL,
		); err != nil {
			return asDuplication(err, "target_name", alias.SourceName+":"+alias.Name)
		}
	}

	return tx.Commit(ctx)
}

func (t *targetPG) Delete(ctx context.Context, targetId string) error {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx, `delete from "target" where "target_id" = $1`, targetId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "target", Identity: targetId}
	}
	return nil
}

func (t *targetPG) UpdateExtras(ctx context.Context, targetId string, delta tdb.ExtraDelta) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(
		ctx, `select exists (select 1 from "target" where "target_id" = $1)`, targetId,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return tpgerr.Missing{Table: "target", Identity: targetId}
	}

	if 0 < len(delta.Remove) {
		if _, err := tx.Exec(
			ctx,
			`delete from "target_extra" where "target_id" = $1 and "key" = any($2::varchar[])`,
			targetId, delta.Remove,
		); err != nil {
			return err
		}
	}
	if err := upsertExtras(ctx, tx, targetId, delta.Add); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (t *targetPG) ResolveNames(ctx context.Context, name string) ([]string, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "target_id" from "target" where lower("name") = lower($1)
		union
		select "target_id" from "target_name" where lower("name") = lower($1)
		`,
		name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []string{}
	for rows.Next() {
		var targetId string
		if err := rows.Scan(&targetId); err != nil {
			return nil, err
		}
		found = append(found, targetId)
	}
	return found, nil
}

func (t *targetPG) RecordExport(ctx context.Context, username string, targetIds []string) error {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "target_export" ("username", "target_ids", "exported_at")
		values ($1, $2::varchar[], now())
		`,
		username, targetIds,
	)
	return err
}
