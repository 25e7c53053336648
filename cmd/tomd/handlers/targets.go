package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	apitargets "github.com/starwatch/tom/pkg/api/types/targets"
	"github.com/starwatch/tom/pkg/auth"
	"github.com/starwatch/tom/pkg/configs/server"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/targets"
	"github.com/starwatch/tom/pkg/utils"
)

// targetQueryOf reads target search conditions from query parameters.
func targetQueryOf(c echo.Context) (tdb.TargetQuery, error) {
	query := tdb.TargetQuery{
		Name:           c.QueryParam("name"),
		Classification: c.QueryParam("classification"),
	}

	if t := c.QueryParam("type"); t != "" {
		ttype, err := tdb.AsTargetType(t)
		if err != nil {
			return tdb.TargetQuery{}, err
		}
		query.Type = ttype
	}

	ra, dec, radius := c.QueryParam("ra"), c.QueryParam("dec"), c.QueryParam("radius")
	if ra != "" || dec != "" || radius != "" {
		if ra == "" || dec == "" || radius == "" {
			return tdb.TargetQuery{}, fmt.Errorf("cone search needs ra, dec and radius together")
		}
		cone := tdb.Cone{}
		var err error
		if cone.RA, err = strconv.ParseFloat(ra, 64); err != nil {
			return tdb.TargetQuery{}, fmt.Errorf("ra: %w", err)
		}
		if cone.Dec, err = strconv.ParseFloat(dec, 64); err != nil {
			return tdb.TargetQuery{}, fmt.Errorf("dec: %w", err)
		}
		if cone.Radius, err = strconv.ParseFloat(radius, 64); err != nil {
			return tdb.TargetQuery{}, fmt.Errorf("radius: %w", err)
		}
		if cone.Radius <= 0 {
			return tdb.TargetQuery{}, fmt.Errorf("radius should be positive: %f", cone.Radius)
		}
		query.Cone = &cone
	}

	return query, nil
}

func FindTargetHandler(dbTarget tdb.TargetInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		query, err := targetQueryOf(c)
		if err != nil {
			return apierr.BadRequest("query parameters are wrong", err)
		}

		targetIds, err := dbTarget.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if len(targetIds) == 0 {
			return c.JSON(http.StatusOK, []apitargets.Detail{})
		}

		found, err := dbTarget.Get(ctx, targetIds)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		details := make([]apitargets.Detail, 0, len(found))
		for _, id := range targetIds {
			if t, ok := found[id]; ok {
				details = append(details, apitargets.ComposeDetail(t))
			}
		}
		return c.JSON(http.StatusOK, details)
	}
}

// applyExtraDefaults fills in defined extra fields the request left out.
func applyExtraDefaults(target *tdb.Target, defined []server.ExtraField) {
	given := map[string]bool{}
	for _, x := range target.Extras {
		given[x.Key] = true
	}
	for _, field := range defined {
		if given[field.Name] || field.Default == "" {
			continue
		}
		target.Extras = append(target.Extras, tdb.TargetExtra{
			Key: field.Name, Value: field.Default,
		})
	}
}

func RegisterTargetHandler(dbTarget tdb.TargetInterface, extraFields []server.ExtraField) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apitargets.Detail{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON target", err)
		}

		target, err := req.Decompose()
		if err != nil {
			return apierr.BadRequest("target is malformed", err)
		}
		applyExtraDefaults(&target, extraFields)

		targetId, err := dbTarget.Register(ctx, target)
		if errors.Is(err, tdb.ErrInvalid) {
			return apierr.BadRequest("target is malformed", err)
		}
		if errors.Is(err, tdb.ErrAlreadyExists) {
			return apierr.Conflict("target name or alias is already used", apierr.WithError(err))
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		registered, err := dbTarget.Get(ctx, []string{targetId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		t, ok := registered[targetId]
		if !ok {
			return apierr.InternalServerError(fmt.Errorf("registered target is not found: %s", targetId))
		}
		return c.JSON(http.StatusCreated, apitargets.ComposeDetail(t))
	}
}

func GetTargetHandler(dbTarget tdb.TargetInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		targetId := c.Param(paramKey)

		found, err := dbTarget.Get(ctx, []string{targetId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		t, ok := found[targetId]
		if !ok {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, apitargets.ComposeDetail(t))
	}
}

func UpdateTargetHandler(dbTarget tdb.TargetInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		targetId := c.Param(paramKey)

		req := apitargets.Detail{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON target", err)
		}
		target, err := req.Decompose()
		if err != nil {
			return apierr.BadRequest("target is malformed", err)
		}

		if err := dbTarget.Update(ctx, targetId, target); err != nil {
			if errors.Is(err, tdb.ErrInvalid) {
				return apierr.BadRequest("target is malformed", err)
			}
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			if errors.Is(err, tdb.ErrAlreadyExists) {
				return apierr.Conflict("target name or alias is already used", apierr.WithError(err))
			}
			return apierr.InternalServerError(err)
		}

		updated, err := dbTarget.Get(ctx, []string{targetId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		t, ok := updated[targetId]
		if !ok {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, apitargets.ComposeDetail(t))
	}
}

func DeleteTargetHandler(dbTarget tdb.TargetInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := dbTarget.Delete(ctx, c.Param(paramKey)); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// SearchTargetHandler resolves a name or alias.
//
// Exactly one match responds with that target. More than one responds
// 300 with the candidates, so the caller can pick.
func SearchTargetHandler(dbTarget tdb.TargetInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		name := c.Param(paramKey)

		targetIds, err := dbTarget.ResolveNames(ctx, name)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if len(targetIds) == 0 {
			return apierr.NotFound()
		}

		found, err := dbTarget.Get(ctx, targetIds)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		if len(targetIds) == 1 {
			t, ok := found[targetIds[0]]
			if !ok {
				return apierr.NotFound()
			}
			return c.JSON(http.StatusOK, apitargets.ComposeDetail(t))
		}

		candidates := make([]apitargets.Summary, 0, len(found))
		for _, id := range targetIds {
			if t, ok := found[id]; ok {
				candidates = append(candidates, apitargets.ComposeSummary(t.TargetBody))
			}
		}
		return c.JSON(http.StatusMultipleChoices, candidates)
	}
}

func UpdateExtrasHandler(dbTarget tdb.TargetInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		targetId := c.Param(paramKey)

		req := apitargets.ExtraDelta{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON extras delta", err)
		}

		if err := dbTarget.UpdateExtras(ctx, targetId, req.Decompose()); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		updated, err := dbTarget.Get(ctx, []string{targetId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		t, ok := updated[targetId]
		if !ok {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, apitargets.ComposeDetail(t))
	}
}

// importPayload finds the CSV in the request: a multipart "file" part,
// or the raw body otherwise.
func importPayload(c echo.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(c.Request().Header.Get("Content-Type"), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf(`multipart part "file" is required: %w`, err)
		}
		return fh.Open()
	}
	return c.Request().Body, nil
}

func ImportTargetsHandler(dbTarget tdb.TargetInterface, conf *server.ServerConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		payload, err := importPayload(c)
		if err != nil {
			return apierr.BadRequest("CSV payload is missing", err)
		}
		defer payload.Close()

		parsed, parseErrs := targets.ImportCSV(payload, conf.HasSource)

		result := apitargets.ImportResult{
			Errors: utils.Map(parseErrs, func(e error) string { return e.Error() }),
		}
		for _, target := range parsed {
			if _, err := dbTarget.Register(ctx, target); err != nil {
				if errors.Is(err, tdb.ErrAlreadyExists) || errors.Is(err, tdb.ErrInvalid) {
					result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", target.Name, err))
					continue
				}
				return apierr.InternalServerError(err)
			}
			result.Imported += 1
		}

		return c.JSON(http.StatusOK, result)
	}
}

func ExportTargetsHandler(dbTarget tdb.TargetInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		targetIds := []string{}
		for _, chunk := range c.QueryParams()["target"] {
			for _, id := range strings.Split(chunk, ",") {
				if id = strings.TrimSpace(id); id != "" {
					targetIds = append(targetIds, id)
				}
			}
		}

		if len(targetIds) == 0 {
			all, err := dbTarget.Find(ctx, tdb.TargetQuery{})
			if err != nil {
				return apierr.InternalServerError(err)
			}
			targetIds = all
		}

		found, err := dbTarget.Get(ctx, targetIds)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		exported := make([]tdb.Target, 0, len(found))
		for _, id := range targetIds {
			if t, ok := found[id]; ok {
				exported = append(exported, t)
			}
		}

		buf := new(bytes.Buffer)
		if err := targets.ExportCSV(buf, exported); err != nil {
			return apierr.InternalServerError(err)
		}

		if identity, ok := auth.From(c); ok {
			exportedIds := utils.Map(exported, func(t tdb.Target) string { return t.TargetId })
			if err := dbTarget.RecordExport(ctx, identity.Username, exportedIds); err != nil {
				return apierr.InternalServerError(err)
			}
		}

		filename := fmt.Sprintf("targets-%s.csv", time.Now().Format("20060102150405"))
		c.Response().Header().Set(
			echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s"`, filename),
		)
		return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
	}
}
