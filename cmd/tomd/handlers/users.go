package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	apiusers "github.com/starwatch/tom/pkg/api/types/users"
	"github.com/starwatch/tom/pkg/auth"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils"
)

func FindUserHandler(dbUser tdb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		ids, err := dbUser.Find(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if len(ids) == 0 {
			return c.JSON(http.StatusOK, []apiusers.Detail{})
		}

		found, err := dbUser.Get(ctx, ids)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		details := make([]apiusers.Detail, 0, len(found))
		for _, id := range ids {
			if u, ok := found[id]; ok {
				details = append(details, apiusers.ComposeDetail(u))
			}
		}
		return c.JSON(http.StatusOK, details)
	}
}

func RegisterUserHandler(dbUser tdb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiusers.Spec{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON user", err)
		}
		if req.Username == "" || req.Password == "" {
			return apierr.BadRequest("username and password are required", nil)
		}

		hashedPassword, err := auth.HashPassword(req.Password)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		id, err := dbUser.Register(ctx, req.Decompose(), hashedPassword)
		if errors.Is(err, tdb.ErrAlreadyExists) {
			return apierr.Conflict("username is already used", apierr.WithError(err))
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		registered, err := dbUser.Get(ctx, []int{id})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		u, ok := registered[id]
		if !ok {
			return apierr.InternalServerError(errors.New("registered user is not found"))
		}
		return c.JSON(http.StatusCreated, apiusers.ComposeDetail(u))
	}
}

func GetUserHandler(dbUser tdb.UserInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("user id should be a number", err)
		}

		found, err := dbUser.Get(ctx, []int{id})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		u, ok := found[id]
		if !ok {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, apiusers.ComposeDetail(u))
	}
}

// selfOrSuperuser lets superusers through for anyone, others only for
// their own record.
func selfOrSuperuser(c echo.Context, id int) error {
	identity, ok := auth.From(c)
	if !ok {
		return apierr.Unauthorized("login is required", nil)
	}
	if identity.Superuser || identity.UserId == id {
		return nil
	}
	return apierr.Forbidden("only superusers may change other users")
}

func UpdateUserHandler(dbUser tdb.UserInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("user id should be a number", err)
		}
		if err := selfOrSuperuser(c, id); err != nil {
			return err
		}

		req := apiusers.Spec{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON user", err)
		}

		// only superusers may grant superuser
		if identity, _ := auth.From(c); req.Superuser && !identity.Superuser {
			return apierr.Forbidden("only superusers may grant superuser")
		}

		if err := dbUser.Update(ctx, id, req.Decompose()); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			if errors.Is(err, tdb.ErrAlreadyExists) {
				return apierr.Conflict("username is already used", apierr.WithError(err))
			}
			return apierr.InternalServerError(err)
		}

		updated, err := dbUser.Get(ctx, []int{id})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		u, ok := updated[id]
		if !ok {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, apiusers.ComposeDetail(u))
	}
}

func UpdatePasswordHandler(dbUser tdb.UserInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("user id should be a number", err)
		}
		if err := selfOrSuperuser(c, id); err != nil {
			return err
		}

		req := apiusers.PasswordChange{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be JSON with a password", err)
		}
		if req.Password == "" {
			return apierr.BadRequest("password is required", nil)
		}

		hashedPassword, err := auth.HashPassword(req.Password)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if err := dbUser.UpdatePassword(ctx, id, hashedPassword); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func DeleteUserHandler(dbUser tdb.UserInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("user id should be a number", err)
		}

		if err := dbUser.Delete(ctx, id); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func FindGroupHandler(dbGroup tdb.GroupInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		groups, err := dbGroup.Find(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(groups, apiusers.ComposeGroup))
	}
}

func RegisterGroupHandler(dbGroup tdb.GroupInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiusers.Group{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON group", err)
		}
		if req.Name == "" {
			return apierr.BadRequest("group name is required", nil)
		}

		id, err := dbGroup.Register(ctx, req.Name)
		if errors.Is(err, tdb.ErrAlreadyExists) {
			return apierr.Conflict("group name is already used", apierr.WithError(err))
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusCreated, apiusers.Group{
			Id: id, Name: req.Name, Members: []string{},
		})
	}
}

func UpdateGroupHandler(dbGroup tdb.GroupInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("group id should be a number", err)
		}

		req := apiusers.Group{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be a JSON group", err)
		}

		group := tdb.Group{Id: id, Name: req.Name, Members: req.Members}
		if err := dbGroup.Update(ctx, id, group); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			if errors.Is(err, tdb.ErrAlreadyExists) {
				return apierr.Conflict("group name is already used", apierr.WithError(err))
			}
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, apiusers.ComposeGroup(group))
	}
}

func DeleteGroupHandler(dbGroup tdb.GroupInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("group id should be a number", err)
		}

		if err := dbGroup.Delete(ctx, id); err != nil {
			if errors.Is(err, tdb.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
