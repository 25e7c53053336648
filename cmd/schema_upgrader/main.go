package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/youta-t/flarc"

	"github.com/starwatch/tom/pkg/configs/server"
	"github.com/starwatch/tom/pkg/db/postgres"
	"github.com/starwatch/tom/pkg/utils/try"
)

type Flag struct {
	Config string `flag:"config" help:"The path to the tomd config file."`
	Schema string `flag:"schema" help:"The path to the schema repository directory."`
}

const ARG_SCHEMA_DEST = "ARG_SCHEMA_DEST"

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt, os.Kill,
	)
	defer cancel()

	cmd := try.To(flarc.NewCommand(
		"database schema upgrader",
		Flag{
			Config: os.Getenv("TOM_CONFIG"),
			Schema: os.Getenv("TOM_SCHEMA"),
		},
		flarc.Args{
			{
				Name: ARG_SCHEMA_DEST, Help: "The schema files are copied to these directories.",
				Required: false, Repeatable: false,
			},
		},
		func(ctx context.Context, c flarc.Commandline[Flag], a []any) error {
			flags := c.Flags()

			dest := c.Args()[ARG_SCHEMA_DEST]
			if len(dest) != 0 {
				logger.Println("copying schema files...")
				if err := os.CopyFS(dest[0], os.DirFS(flags.Schema)); err != nil {
					return err
				}
			}

			conf, err := server.LoadServerConfig(flags.Config)
			if err != nil {
				return err
			}

			db, err := postgres.New(
				ctx, conf.DBURI,
				postgres.WithSchemaRepository(flags.Schema),
			)
			if err != nil {
				return err
			}
			defer db.Close()

			return db.Schema().Upgrade(ctx)
		},
	)).OrFatal(logger)

	os.Exit(flarc.Run(ctx, cmd))
}
