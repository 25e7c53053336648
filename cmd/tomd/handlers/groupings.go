package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	apitargets "github.com/starwatch/tom/pkg/api/types/targets"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils"
)

func FindGroupingsHandler(dbList tdb.TargetListInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		lists, err := dbList.Find(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(lists, apitargets.ComposeGrouping))
	}
}

func RegisterGroupingHandler(dbList tdb.TargetListInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apitargets.GroupingSpec{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be JSON with a name", err)
		}
		if req.Name == "" {
			return apierr.BadRequest("grouping name is required", nil)
		}

		id, err := dbList.Register(ctx, req.Name)
		if errors.Is(err, tdb.ErrAlreadyExists) {
			return apierr.Conflict("grouping name is already used", apierr.WithError(err))
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apitargets.Grouping{
			Id: id, Name: req.Name, TargetIds: []string{},
		})
	}
}

func DeleteGroupingHandler(dbList tdb.TargetListInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("grouping id should be a number", err)
		}

		if err := dbList.Delete(ctx, id); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// UpdateGroupingTargetsHandler changes grouping membership: targets
// given directly, or all matching the filter, added, removed or moved.
func UpdateGroupingTargetsHandler(
	dbList tdb.TargetListInterface,
	dbTarget tdb.TargetInterface,
	paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("grouping id should be a number", err)
		}

		req := apitargets.GroupingUpdate{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON grouping update", err)
		}

		if req.Filter != nil {
			query, err := req.Filter.Decompose()
			if err != nil {
				return apierr.BadRequest("filter is malformed", err)
			}
			matched, err := dbTarget.Find(ctx, query)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			switch req.Op {
			case "", "add":
				req.Add = utils.Concat(req.Add, matched)
			case "remove":
				req.Remove = utils.Concat(req.Remove, matched)
			case "move":
				req.Move = utils.Concat(req.Move, matched)
			default:
				return apierr.BadRequest(
					fmt.Sprintf(`op should be "add", "remove" or "move": %s`, req.Op), nil,
				)
			}
		}

		if len(req.Move) != 0 {
			others, err := dbList.Find(ctx)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			for _, other := range others {
				if other.Id == id {
					continue
				}
				if err := dbList.RemoveTargets(ctx, other.Id, req.Move); err != nil {
					return apierr.InternalServerError(err)
				}
			}
			req.Add = utils.Concat(req.Add, req.Move)
		}

		if len(req.Add) != 0 {
			if err := dbList.AddTargets(ctx, id, utils.Deduped(req.Add)); err != nil {
				if errors.Is(err, tdb.ErrMissing) {
					return apierr.NotFound()
				}
				return apierr.InternalServerError(err)
			}
		}
		if len(req.Remove) != 0 {
			if err := dbList.RemoveTargets(ctx, id, req.Remove); err != nil {
				if errors.Is(err, tdb.ErrMissing) {
					return apierr.NotFound()
				}
				return apierr.InternalServerError(err)
			}
		}

		lists, err := dbList.Find(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		for _, l := range lists {
			if l.Id == id {
				return c.JSON(http.StatusOK, apitargets.ComposeGrouping(l))
			}
		}
		return apierr.NotFound()
	}
}
