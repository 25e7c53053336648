package dataproduct

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	tdb "github.com/starwatch/tom/pkg/db"
	tpgerr "github.com/starwatch/tom/pkg/db/postgres/errors"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
)

type dataProductPG struct { // implements tdb.DataProductInterface

	// connection pool for PostgreSQL
	pool tpool.Pool
}

func New(pool tpool.Pool) *dataProductPG {
	return &dataProductPG{pool: pool}
}

const columns = `
	"product_id", "target_id", "observation_id", "owner",
	"type", "status", "path", "filename",
	"featured", "dry_run", "comment", "created", "modified"
`

func (d *dataProductPG) Register(ctx context.Context, product tdb.DataProduct) (string, error) {
	if _, err := tdb.AsDataProductType(string(product.Type)); err != nil {
		return "", fmt.Errorf("%w: %s", tdb.ErrInvalid, err)
	}

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Release()

	productId := "dp-" + uuid.NewString()
	status := product.Status
	if status == "" {
		status = tdb.ProductPending
	}

	if _, err := conn.Exec(
		ctx,
		`
		insert into "data_product" (`+columns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		`,
		productId, product.TargetId, product.ObservationId, product.Owner,
		string(product.Type), string(status), product.Path, product.Filename,
		product.Featured, product.DryRun, product.Comment,
	); err != nil {
		return "", err
	}
	return productId, nil
}

func (d *dataProductPG) Get(ctx context.Context, productIds []string) (map[string]tdb.DataProduct, error) {
	if len(productIds) == 0 {
		return map[string]tdb.DataProduct{}, nil
	}

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`select `+columns+` from "data_product" where "product_id" = any($1::varchar[])`,
		productIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]tdb.DataProduct{}
	for rows.Next() {
		product := tdb.DataProduct{}
		var ptype, status string
		if err := rows.Scan(
			&product.ProductId, &product.TargetId, &product.ObservationId, &product.Owner,
			&ptype, &status, &product.Path, &product.Filename,
			&product.Featured, &product.DryRun, &product.Comment,
			&product.Created, &product.Modified,
		); err != nil {
			return nil, err
		}
		product.Type = tdb.DataProductType(ptype)
		product.Status = tdb.DataProductStatus(status)
		result[product.ProductId] = product
	}
	return result, nil
}

func (d *dataProductPG) Find(ctx context.Context, query tdb.DataProductQuery) ([]string, error) {
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
	if query.Type != "" {
		args = append(args, string(query.Type))
		conds = append(conds, fmt.Sprintf(`"type" = $%d`, len(args)))
	}
	if query.Featured {
		conds = append(conds, `"featured"`)
	}

	where := ""
	if 0 < len(conds) {
		where = "where " + strings.Join(conds, " and ")
	}

	rows, err := conn.Query(
		ctx,
		`select "product_id" from "data_product" `+where+` order by "created" desc`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []string{}
	for rows.Next() {
		var productId string
		if err := rows.Scan(&productId); err != nil {
			return nil, err
		}
		found = append(found, productId)
	}
	return found, nil
}

func (d *dataProductPG) Delete(ctx context.Context, productId string) error {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx, `delete from "data_product" where "product_id" = $1`, productId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "data_product", Identity: productId}
	}
	return nil
}

func (d *dataProductPG) SetStatus(ctx context.Context, productId string, status tdb.DataProductStatus) error {
	if _, err := tdb.AsDataProductStatus(string(status)); err != nil {
		return fmt.Errorf("%w: %s", tdb.ErrInvalid, err)
	}

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`update "data_product" set "status" = $1, "modified" = now() where "product_id" = $2`,
		string(status), productId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < 1 {
		return tpgerr.Missing{Table: "data_product", Identity: productId}
	}
	return nil
}

func (d *dataProductPG) SetFeatured(ctx context.Context, productId string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var targetId string
	if err := tx.QueryRow(
		ctx, `select "target_id" from "data_product" where "product_id" = $1`, productId,
	).Scan(&targetId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tpgerr.Missing{Table: "data_product", Identity: productId}
		}
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`update "data_product" set "featured" = false, "modified" = now()
		where "target_id" = $1 and "featured"`,
		targetId,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		ctx,
		`update "data_product" set "featured" = true, "modified" = now()
		where "product_id" = $1`,
		productId,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
