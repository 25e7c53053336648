package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apidp "github.com/starwatch/tom/pkg/api/types/dataproducts"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	"github.com/starwatch/tom/pkg/auth"
	"github.com/starwatch/tom/pkg/dataproc"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/media"
)

// UploadDataProductHandler stores an uploaded payload and runs the
// processor matched to its type, unless the upload is a dry run.
//
// Multipart form fields: file (required), data_product_type, facility,
// observation_id, comment, dry_run.
func UploadDataProductHandler(
	dbTarget tdb.TargetInterface,
	dbProduct tdb.DataProductInterface,
	dbDatum tdb.DatumInterface,
	store *media.Store,
	processors *dataproc.Registry,
	paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		targetId := c.Param(paramKey)

		found, err := dbTarget.Get(ctx, []string{targetId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		target, ok := found[targetId]
		if !ok {
			return apierr.NotFound()
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return apierr.BadRequest(`multipart part "file" is required`, err)
		}

		ptype := tdb.Photometry
		if v := c.FormValue("data_product_type"); v != "" {
			ptype, err = tdb.AsDataProductType(v)
			if err != nil {
				return apierr.BadRequest("data product type is unknown", err)
			}
		}

		product := tdb.DataProduct{
			TargetId: targetId,
			Type:     ptype,
			Status:   tdb.ProductPending,
			Filename: fh.Filename,
			Comment:  c.FormValue("comment"),
			DryRun:   c.FormValue("dry_run") == "true",
		}
		if identity, ok := auth.From(c); ok {
			product.Owner = identity.Username
		}
		if v := c.FormValue("observation_id"); v != "" {
			obsId, err := strconv.Atoi(v)
			if err != nil {
				return apierr.BadRequest("observation id should be a number", err)
			}
			product.ObservationId = &obsId
		}

		product.Path = media.PathFor(product, target.Name, c.FormValue("facility"))

		payload, err := fh.Open()
		if err != nil {
			return apierr.InternalServerError(err)
		}
		defer payload.Close()
		if err := store.Save(product.Path, payload); err != nil {
			return apierr.InternalServerError(err)
		}

		productId, err := dbProduct.Register(ctx, product)
		if errors.Is(err, tdb.ErrInvalid) {
			return apierr.BadRequest("data product is malformed", err)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}
		product.ProductId = productId

		result := apidp.UploadResult{DryRun: product.DryRun}
		if !product.DryRun {
			stored, err := store.Open(product.Path)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			defer stored.Close()

			inserted, err := processors.Run(ctx, dbProduct, dbDatum, product, stored)
			if err != nil {
				return apierr.BadRequest("payload cannot be processed", err)
			}
			result.InsertedRows = inserted
			if proc, ok := processors.Get(product.Type); ok {
				result.ProcessorUsed = string(proc.Type())
			}
		}

		registered, err := dbProduct.Get(ctx, []string{productId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if p, ok := registered[productId]; ok {
			result.Product = apidp.ComposeDetail(p)
		}
		return c.JSON(http.StatusCreated, result)
	}
}

func FindDataProductHandler(dbProduct tdb.DataProductInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		query := tdb.DataProductQuery{
			TargetId: c.QueryParam("target"),
			Featured: c.QueryParam("featured") == "true",
		}
		if v := c.QueryParam("type"); v != "" {
			ptype, err := tdb.AsDataProductType(v)
			if err != nil {
				return apierr.BadRequest("data product type is unknown", err)
			}
			query.Type = ptype
		}

		productIds, err := dbProduct.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if len(productIds) == 0 {
			return c.JSON(http.StatusOK, []apidp.Detail{})
		}

		found, err := dbProduct.Get(ctx, productIds)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		details := make([]apidp.Detail, 0, len(found))
		for _, id := range productIds {
			if p, ok := found[id]; ok {
				details = append(details, apidp.ComposeDetail(p))
			}
		}
		return c.JSON(http.StatusOK, details)
	}
}

func GetDataProductHandler(dbProduct tdb.DataProductInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		productId := c.Param(paramKey)

		found, err := dbProduct.Get(ctx, []string{productId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		p, ok := found[productId]
		if !ok {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, apidp.ComposeDetail(p))
	}
}

func GetDataProductFileHandler(dbProduct tdb.DataProductInterface, store *media.Store, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		productId := c.Param(paramKey)

		found, err := dbProduct.Get(ctx, []string{productId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		p, ok := found[productId]
		if !ok {
			return apierr.NotFound()
		}

		payload, err := store.Open(p.Path)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		defer payload.Close()

		c.Response().Header().Set(
			echo.HeaderContentDisposition, `attachment; filename="`+p.Filename+`"`,
		)
		return c.Stream(http.StatusOK, echo.MIMEOctetStream, payload)
	}
}

func DeleteDataProductHandler(dbProduct tdb.DataProductInterface, store *media.Store, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		productId := c.Param(paramKey)

		found, err := dbProduct.Get(ctx, []string{productId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		p, ok := found[productId]
		if !ok {
			return apierr.NotFound()
		}

		if err := dbProduct.Delete(ctx, productId); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		if err := store.Remove(p.Path); err != nil {
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func SetFeaturedHandler(dbProduct tdb.DataProductInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		productId := c.Param(paramKey)

		if err := dbProduct.SetFeatured(ctx, productId); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		updated, err := dbProduct.Get(ctx, []string{productId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		p, ok := updated[productId]
		if !ok {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, apidp.ComposeDetail(p))
	}
}
