package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	tdb "github.com/starwatch/tom/pkg/db"
	tpgdp "github.com/starwatch/tom/pkg/db/postgres/dataproduct"
	tpgdatum "github.com/starwatch/tom/pkg/db/postgres/datum"
	tpgobs "github.com/starwatch/tom/pkg/db/postgres/observation"
	tpool "github.com/starwatch/tom/pkg/db/postgres/pool"
	tpgschema "github.com/starwatch/tom/pkg/db/postgres/schema"
	tpgtarget "github.com/starwatch/tom/pkg/db/postgres/target"
	tpguser "github.com/starwatch/tom/pkg/db/postgres/user"
	xe "github.com/starwatch/tom/pkg/errors"
)

type tomDBPostgres struct {
	pool         *pgxpool.Pool
	targets      tdb.TargetInterface
	targetLists  tdb.TargetListInterface
	dataProducts tdb.DataProductInterface
	datums       tdb.DatumInterface
	cadences     tdb.CadenceInterface
	observations tdb.ObservationInterface
	users        tdb.UserInterface
	groups       tdb.GroupInterface
	schema       tdb.SchemaInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (tdb.TomDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	p := tpool.Wrap(pool)
	var schema tdb.SchemaInterface = tpgschema.Null()
	if c.SchemaRepository != "" {
		schema = tpgschema.New(p, c.SchemaRepository)
	}

	return &tomDBPostgres{
		pool:         pool,
		targets:      tpgtarget.New(p),
		targetLists:  tpgtarget.NewList(p),
		dataProducts: tpgdp.New(p),
		datums:       tpgdatum.New(p),
		cadences:     tpgdatum.NewCadence(p),
		observations: tpgobs.New(p),
		users:        tpguser.New(p),
		groups:       tpguser.NewGroup(p),
		schema:       schema,
	}, nil
}

func (t *tomDBPostgres) Targets() tdb.TargetInterface {
	return t.targets
}

func (t *tomDBPostgres) TargetLists() tdb.TargetListInterface {
	return t.targetLists
}

func (t *tomDBPostgres) DataProducts() tdb.DataProductInterface {
	return t.dataProducts
}

func (t *tomDBPostgres) Datums() tdb.DatumInterface {
	return t.datums
}

func (t *tomDBPostgres) Cadences() tdb.CadenceInterface {
	return t.cadences
}

func (t *tomDBPostgres) Observations() tdb.ObservationInterface {
	return t.observations
}

func (t *tomDBPostgres) Users() tdb.UserInterface {
	return t.users
}

func (t *tomDBPostgres) Groups() tdb.GroupInterface {
	return t.groups
}

func (t *tomDBPostgres) Schema() tdb.SchemaInterface {
	return t.schema
}

func (t *tomDBPostgres) Close() error {
	t.pool.Close()
	return nil
}
