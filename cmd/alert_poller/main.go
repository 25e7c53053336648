package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starwatch/tom/pkg/brokers"
	"github.com/starwatch/tom/pkg/configs/server"
	tdb "github.com/starwatch/tom/pkg/db"
	tpg "github.com/starwatch/tom/pkg/db/postgres"
	"github.com/starwatch/tom/pkg/loop"
	"github.com/starwatch/tom/pkg/utils/filewatch"
	"github.com/starwatch/tom/pkg/utils/try"
)

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	defer cancel()

	pconfig := flag.String(
		"config-path", os.Getenv("TOM_CONFIG"), "path to config file",
	)
	pinterval := flag.Duration(
		"interval", 15*time.Minute, "pause between polling rounds",
	)
	flag.Parse()

	{
		// quit to restart when the config changes
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(server.LoadServerConfig(*pconfig)).OrFatal(logger)
	db := try.To(tpg.New(ctx, conf.DBURI)).OrFatal(logger)
	defer db.Close()

	registry := brokers.NewRegistry(
		brokers.NewMARS(conf.Brokers.MARSURL, nil),
		brokers.NewFink(conf.Brokers.FinkURL, nil),
	)

	logger.Printf("polling brokers every %s", *pinterval)
	total, err := loop.Start(
		ctx, 0,
		func(ctx context.Context, total int) (int, loop.Next) {
			inserted, err := pollOnce(ctx, db, registry, logger)
			if err != nil {
				return total, loop.Break(err)
			}
			return total + inserted, loop.Continue(*pinterval)
		},
	)
	if err != nil && ctx.Err() == nil {
		logger.Fatalf("polling stops with error: %s (after %d rows)", err, total)
	}
	logger.Printf("polling stops: %s (%d rows inserted)", context.Cause(ctx), total)
}

// pollOnce refreshes photometry for every (target, broker) cadence.
// A failing pair is logged and skipped, so one unreachable broker does
// not starve the rest.
func pollOnce(ctx context.Context, db tdb.TomDatabase, registry *brokers.Registry, logger *log.Logger) (int, error) {
	cadences, err := db.Cadences().Find(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, cadence := range cadences {
		broker, ok := registry.Get(cadence.Broker)
		if !ok {
			logger.Printf("skip %s: broker %s is not registered", cadence.TargetId, cadence.Broker)
			continue
		}

		found, err := db.Targets().Get(ctx, []string{cadence.TargetId})
		if err != nil {
			return total, err
		}
		target, ok := found[cadence.TargetId]
		if !ok {
			// target is gone; stop polling for it
			if err := db.Cadences().Delete(ctx, cadence.TargetId); err != nil {
				return total, err
			}
			continue
		}

		inserted, err := broker.ProcessReducedData(ctx, db.Datums(), target)
		if err != nil {
			logger.Printf("skip %s: %s cannot be queried: %s", target.Name, broker.Name(), err)
			continue
		}

		if err := db.Cadences().Upsert(ctx, tdb.BrokerCadence{
			TargetId:     cadence.TargetId,
			Broker:       cadence.Broker,
			LastUpdate:   time.Now(),
			InsertedRows: inserted,
		}); err != nil {
			return total, err
		}
		total += inserted
	}
	return total, nil
}
