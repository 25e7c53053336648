package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/starwatch/tom/cmd/tomd/handlers"
	"github.com/starwatch/tom/pkg/auth"
	"github.com/starwatch/tom/pkg/brokers"
	"github.com/starwatch/tom/pkg/catalogs"
	"github.com/starwatch/tom/pkg/configs/server"
	tdb "github.com/starwatch/tom/pkg/db"
	tpg "github.com/starwatch/tom/pkg/db/postgres"
	"github.com/starwatch/tom/pkg/dataproc"
	"github.com/starwatch/tom/pkg/utils/echoutil"
	"github.com/starwatch/tom/pkg/media"
)

func main() {
	configPath := flag.String("config-path", os.Getenv("TOM_CONFIG"), "server config path")
	schemaRepo := flag.String("schema-repo", os.Getenv("TOM_SCHEMA"), "schema repository path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	conf, err := server.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}

	db, err := tpg.New(ctx, conf.DBURI, tpg.WithSchemaRepository(*schemaRepo))
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	defer db.Close()
	if *schemaRepo != "" {
		ctx_, ccan := db.Schema().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	e := buildServer(conf, db)
	echoutil.SetLevel(e, *loglevel)
	for _, r := range e.Routes() {
		e.Logger.Debugf("- mount handler: %s %s", r.Method, r.Path)
	}

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		cert, key := *pcert, *pkey
		var err error
		if cert != "" && key != "" {
			err = e.StartTLS(":"+conf.ServerPort, cert, key)
		} else {
			err = e.Start(":" + conf.ServerPort)
		}
		if err != nil && err != http.ErrServerClosed {
			ch <- err
		}
	}()

	exit := 0
	select {
	case <-ctx.Done():
		if err := ctx.Err(); err != nil {
			e.Logger.Infof("context has been done: %s, cause: %s", err, context.Cause(ctx))
			exit = 1
		}
	case err := <-ch:
		if err != nil {
			e.Logger.Error("server stops with error:", err)
			exit = 1
		}
	}

	e.Logger.Info("shutting down...")
	qctx, qcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer qcancel()
	if err := e.Shutdown(qctx); err != nil {
		e.Logger.Fatalf("shutdown with error. %+v", err)
		os.Exit(1)
	}
	os.Exit(exit)
}

func buildServer(conf *server.ServerConfig, db tdb.TomDatabase) *echo.Echo {
	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	issuer := auth.NewTokenIssuer(
		conf.JWTKey, time.Duration(conf.TokenLifetimeHours)*time.Hour,
	)
	store := media.New(conf.MediaRoot)
	brokerRegistry := brokers.NewRegistry(
		brokers.NewMARS(conf.Brokers.MARSURL, nil),
		brokers.NewFink(conf.Brokers.FinkURL, nil),
	)
	simbadURL := conf.Catalogs.SimbadURL
	if simbadURL == "" {
		simbadURL = server.DefaultSimbadURL
	}
	catalogRegistry := catalogs.NewRegistry(catalogs.NewSimbad(simbadURL, nil))
	processors := dataproc.NewRegistry(dataproc.NewPhotometryProcessor())

	api := e.Group("/api")
	api.POST("/session/", handlers.LoginHandler(db.Users(), issuer))

	authed := api.Group("", auth.Middleware(issuer))
	{
		targetId := "targetId"
		authed.GET("/targets/", handlers.FindTargetHandler(db.Targets()))
		authed.POST("/targets/", handlers.RegisterTargetHandler(db.Targets(), conf.ExtraFields))
		authed.POST("/targets/import/", handlers.ImportTargetsHandler(db.Targets(), conf))
		authed.GET("/targets/export/", handlers.ExportTargetsHandler(db.Targets()))
		authed.GET("/targets/search/:name/", handlers.SearchTargetHandler(db.Targets(), "name"))
		authed.GET("/targets/:targetId/", handlers.GetTargetHandler(db.Targets(), targetId))
		authed.PUT("/targets/:targetId/", handlers.UpdateTargetHandler(db.Targets(), targetId))
		authed.DELETE("/targets/:targetId/", handlers.DeleteTargetHandler(db.Targets(), targetId))
		authed.PUT("/targets/:targetId/extras/", handlers.UpdateExtrasHandler(db.Targets(), targetId))
		authed.GET("/targets/:targetId/datums/", handlers.FindDatumHandler(db.Datums(), targetId))
		authed.POST("/targets/:targetId/data/", handlers.UploadDataProductHandler(
			db.Targets(), db.DataProducts(), db.Datums(), store, processors, targetId,
		))
		authed.GET("/targets/:targetId/observations/", handlers.FindObservationHandler(db.Observations(), targetId))
		authed.POST("/targets/:targetId/observations/", handlers.RegisterObservationHandler(
			db.Targets(), db.Observations(), targetId,
		))
	}

	{
		observationId := "observationId"
		authed.PUT("/observations/:observationId/status/", handlers.UpdateObservationStatusHandler(
			db.Observations(), observationId,
		))
	}

	{
		groupingId := "groupingId"
		authed.GET("/groupings/", handlers.FindGroupingsHandler(db.TargetLists()))
		authed.POST("/groupings/", handlers.RegisterGroupingHandler(db.TargetLists()))
		authed.DELETE("/groupings/:groupingId/", handlers.DeleteGroupingHandler(db.TargetLists(), groupingId))
		authed.PUT("/groupings/:groupingId/targets/", handlers.UpdateGroupingTargetsHandler(
			db.TargetLists(), db.Targets(), groupingId,
		))
	}

	{
		productId := "productId"
		authed.GET("/data/", handlers.FindDataProductHandler(db.DataProducts()))
		authed.GET("/data/:productId/", handlers.GetDataProductHandler(db.DataProducts(), productId))
		authed.GET("/data/:productId/file/", handlers.GetDataProductFileHandler(db.DataProducts(), store, productId))
		authed.DELETE("/data/:productId/", handlers.DeleteDataProductHandler(db.DataProducts(), store, productId))
		authed.PUT("/data/:productId/featured/", handlers.SetFeaturedHandler(db.DataProducts(), productId))
	}

	{
		datumId := "datumId"
		authed.PUT("/datums/:datumId/active/", handlers.SetDatumActiveHandler(db.Datums(), datumId, true))
		authed.DELETE("/datums/:datumId/active/", handlers.SetDatumActiveHandler(db.Datums(), datumId, false))
	}

	{
		name := "name"
		authed.GET("/brokers/", handlers.ListBrokersHandler(brokerRegistry))
		authed.GET("/brokers/:name/query/", handlers.QueryBrokerHandler(brokerRegistry, name))
		authed.POST("/brokers/:name/targets/", handlers.CreateTargetFromAlertHandler(
			brokerRegistry, db.Targets(), db.Datums(), db.Cadences(), name,
		))

		authed.GET("/catalogs/", handlers.ListCatalogsHandler(catalogRegistry))
		authed.POST("/catalogs/query/", handlers.QueryCatalogHandler(catalogRegistry))
	}

	{
		userId := "userId"
		authed.GET("/users/", handlers.FindUserHandler(db.Users()))
		authed.POST("/users/", handlers.RegisterUserHandler(db.Users()), auth.RequireSuperuser)
		authed.GET("/users/:userId/", handlers.GetUserHandler(db.Users(), userId))
		authed.PUT("/users/:userId/", handlers.UpdateUserHandler(db.Users(), userId))
		authed.PUT("/users/:userId/password/", handlers.UpdatePasswordHandler(db.Users(), userId))
		authed.DELETE("/users/:userId/", handlers.DeleteUserHandler(db.Users(), userId), auth.RequireSuperuser)

		groupId := "groupId"
		authed.GET("/groups/", handlers.FindGroupHandler(db.Groups()))
		authed.POST("/groups/", handlers.RegisterGroupHandler(db.Groups()), auth.RequireSuperuser)
		authed.PUT("/groups/:groupId/", handlers.UpdateGroupHandler(db.Groups(), groupId), auth.RequireSuperuser)
		authed.DELETE("/groups/:groupId/", handlers.DeleteGroupHandler(db.Groups(), groupId), auth.RequireSuperuser)
	}

	return e
}
