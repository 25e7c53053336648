package db

import "context"

type SchemaInterface interface {
	// Version reads the schema version applied to the database.
	Version(ctx context.Context) (int, error)

	// Upgrade applies schema versions newer than the applied one.
	Upgrade(ctx context.Context) error

	// Context derives a context that is canceled when the database
	// schema falls behind the schema repository.
	Context(ctx context.Context) (context.Context, context.CancelFunc)
}
