package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apidatums "github.com/starwatch/tom/pkg/api/types/datums"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils"
)

func FindDatumHandler(dbDatum tdb.DatumInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		query := tdb.DatumQuery{
			TargetId:   c.Param(paramKey),
			ActiveOnly: c.QueryParam("active") == "true",
		}
		if v := c.QueryParam("type"); v != "" {
			dtype, err := tdb.AsDataProductType(v)
			if err != nil {
				return apierr.BadRequest("data type is unknown", err)
			}
			query.DataType = dtype
		}

		found, err := dbDatum.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(found, apidatums.ComposeDetail))
	}
}

// SetDatumActiveHandler flips the active flag. Routed under PUT for
// activation and DELETE for deactivation.
func SetDatumActiveHandler(dbDatum tdb.DatumInterface, paramKey string, active bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.ParseInt(c.Param(paramKey), 10, 64)
		if err != nil {
			return apierr.BadRequest("datum id should be a number", err)
		}

		if err := dbDatum.SetActive(ctx, id, active); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
