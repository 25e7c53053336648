package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	apialerts "github.com/starwatch/tom/pkg/api/types/alerts"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	apitargets "github.com/starwatch/tom/pkg/api/types/targets"
	"github.com/starwatch/tom/pkg/brokers"
	tdb "github.com/starwatch/tom/pkg/db"
)

func ListBrokersHandler(registry *brokers.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, registry.Names())
	}
}

// QueryBrokerHandler proxies an alert query to the named broker and
// answers with the broker-independent alert view.
func QueryBrokerHandler(registry *brokers.Registry, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		broker, ok := registry.Get(c.Param(paramKey))
		if !ok {
			return apierr.NotFound()
		}

		raws, err := broker.FetchAlerts(ctx, c.QueryParams())
		if err != nil {
			return apierr.ServiceUnavailable("the broker cannot be queried now. retry later.", err)
		}

		found := make([]apialerts.GenericAlert, 0, len(raws))
		for _, raw := range raws {
			generic, err := broker.ToGenericAlert(raw)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			found = append(found, generic)
		}
		return c.JSON(http.StatusOK, found)
	}
}

// CreateTargetFromAlertHandler drafts and registers a target from a
// broker alert, pulls the photometry the broker has for it, and puts
// the target on the polling cadence.
func CreateTargetFromAlertHandler(
	registry *brokers.Registry,
	dbTarget tdb.TargetInterface,
	dbDatum tdb.DatumInterface,
	dbCadence tdb.CadenceInterface,
	paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		broker, ok := registry.Get(c.Param(paramKey))
		if !ok {
			return apierr.NotFound()
		}

		req := apialerts.CreateTargetRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be JSON with alert_id", err)
		}
		if req.AlertId == "" {
			return apierr.BadRequest("alert_id is required", nil)
		}

		raw, err := broker.FetchAlert(ctx, req.AlertId)
		if errors.Is(err, brokers.ErrNoSuchAlert) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.ServiceUnavailable("the broker cannot be queried now. retry later.", err)
		}

		target, err := broker.ToTarget(raw)
		if err != nil {
			return apierr.BadRequest("the alert cannot become a target", err)
		}

		targetId, err := dbTarget.Register(ctx, target)
		if errors.Is(err, tdb.ErrAlreadyExists) {
			return apierr.Conflict("target name or alias is already used", apierr.WithError(err))
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}
		target.TargetId = targetId

		inserted, err := broker.ProcessReducedData(ctx, dbDatum, target)
		if err != nil {
			c.Logger().Warnf("photometry for %s cannot be pulled from %s: %s", targetId, broker.Name(), err)
		}
		if err := dbCadence.Upsert(ctx, tdb.BrokerCadence{
			TargetId:     targetId,
			Broker:       broker.Name(),
			LastUpdate:   time.Now(),
			InsertedRows: inserted,
		}); err != nil {
			return apierr.InternalServerError(err)
		}

		registered, err := dbTarget.Get(ctx, []string{targetId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		t, ok := registered[targetId]
		if !ok {
			return apierr.InternalServerError(errors.New("registered target is not found: " + targetId))
		}
		return c.JSON(http.StatusCreated, apitargets.ComposeDetail(t))
	}
}
