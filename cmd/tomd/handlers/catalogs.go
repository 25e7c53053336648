package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	apitargets "github.com/starwatch/tom/pkg/api/types/targets"
	"github.com/starwatch/tom/pkg/catalogs"
)

func ListCatalogsHandler(registry *catalogs.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, registry.Names())
	}
}

type catalogQuery struct {
	Catalog string `json:"catalog"`
	Term    string `json:"term"`
}

// QueryCatalogHandler resolves a lookup term through the named
// harvester and answers with a target draft. Nothing is registered.
func QueryCatalogHandler(registry *catalogs.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := catalogQuery{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be JSON with catalog and term", err)
		}
		if req.Term == "" {
			return apierr.BadRequest("term is required", nil)
		}

		harvester, ok := registry.Get(req.Catalog)
		if !ok {
			return apierr.NotFound()
		}

		record, err := harvester.Query(ctx, req.Term)
		if errors.Is(err, catalogs.ErrMissingData) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.ServiceUnavailable("the catalog cannot be queried now. retry later.", err)
		}

		target, err := harvester.ToTarget(record)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, apitargets.ComposeDetail(target))
	}
}
