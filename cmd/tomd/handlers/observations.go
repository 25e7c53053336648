package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	apiobs "github.com/starwatch/tom/pkg/api/types/observations"
	tdb "github.com/starwatch/tom/pkg/db"
)

// FindObservationHandler lists the observation records of a target,
// ordered by scheduled start. With future=true only records whose
// status is not terminal are kept.
func FindObservationHandler(dbObservation tdb.ObservationInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		records, err := dbObservation.FindByTarget(ctx, c.Param(paramKey))
		if err != nil {
			return apierr.InternalServerError(err)
		}

		futureOnly := c.QueryParam("future") == "true"
		details := make([]apiobs.Detail, 0, len(records))
		for _, r := range records {
			if futureOnly && r.Terminal() {
				continue
			}
			details = append(details, apiobs.ComposeDetail(r))
		}
		return c.JSON(http.StatusOK, details)
	}
}

func RegisterObservationHandler(
	dbTarget tdb.TargetInterface,
	dbObservation tdb.ObservationInterface,
	paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		targetId := c.Param(paramKey)

		found, err := dbTarget.Get(ctx, []string{targetId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if _, ok := found[targetId]; !ok {
			return apierr.NotFound()
		}

		req := apiobs.Spec{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON observation", err)
		}
		if req.Facility == "" {
			return apierr.BadRequest("facility is required", nil)
		}

		record := req.Decompose(targetId)
		if record.Status == "" {
			record.Status = "PENDING"
		}

		id, err := dbObservation.Register(ctx, record)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		record.Id = id
		return c.JSON(http.StatusCreated, apiobs.ComposeDetail(record))
	}
}

func UpdateObservationStatusHandler(dbObservation tdb.ObservationInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("observation id should be a number", err)
		}

		req := apiobs.StatusChange{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be JSON with a status", err)
		}
		if req.Status == "" {
			return apierr.BadRequest("status is required", nil)
		}

		if err := dbObservation.UpdateStatus(ctx, id, req.Status); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
