package dataproduct_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/db/postgres/dataproduct"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
)

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(dest ...interface{}) error { return r.err }

type fakeTx struct {
	queryRow func(sql string, args ...interface{}) pgx.Row
}

var _ tpool.Tx = &fakeTx{}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag("UPDATE 1"), nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	panic("it should not be called")
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if t.queryRow == nil {
		panic("it should not be called")
	}
	return t.queryRow(sql, args...)
}
func (t *fakeTx) Begin(ctx context.Context) (tpool.Tx, error) { panic("it should not be called") }
func (t *fakeTx) Commit(ctx context.Context) error            { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error          { return nil }

type fakePool struct {
	tx tpool.Tx
}

var _ tpool.Pool = &fakePool{}

func (p *fakePool) Begin(ctx context.Context) (tpool.Tx, error) { return p.tx, nil }
func (p *fakePool) Acquire(ctx context.Context) (tpool.Conn, error) {
	panic("it should not be called")
}
func (p *fakePool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	panic("it should not be called")
}
func (p *fakePool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	panic("it should not be called")
}
func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	panic("it should not be called")
}
func (p *fakePool) Ping(ctx context.Context) error { return nil }
func (p *fakePool) Close()                         {}

func TestSetFeatured_errors(t *testing.T) {
	t.Run("a product the lookup does not find is reported as missing", func(t *testing.T) {
		pool := &fakePool{tx: &fakeTx{
			queryRow: func(sql string, args ...interface{}) pgx.Row {
				return fakeRow{err: pgx.ErrNoRows}
			},
		}}

		err := dataproduct.New(pool).SetFeatured(context.Background(), "dp-absent")
		if !errors.Is(err, tdb.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("a failing lookup is not mistaken for a missing product", func(t *testing.T) {
		broken := errors.New("connection reset")
		pool := &fakePool{tx: &fakeTx{
			queryRow: func(sql string, args ...interface{}) pgx.Row {
				return fakeRow{err: broken}
			},
		}}

		err := dataproduct.New(pool).SetFeatured(context.Background(), "dp-1")
		if errors.Is(err, tdb.ErrMissing) {
			t.Errorf("a transient failure is reported as missing: %v", err)
		}
		if !errors.Is(err, broken) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
