package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/starwatch/tom/pkg/api/types/errors"
	apisession "github.com/starwatch/tom/pkg/api/types/session"
	"github.com/starwatch/tom/pkg/auth"
	tdb "github.com/starwatch/tom/pkg/db"
)

// LoginHandler exchanges a username and password for a token.
func LoginHandler(dbUser tdb.UserInterface, issuer *auth.TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apisession.LoginRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.BadRequest("request body should be JSON with username and password", err)
		}
		if req.Username == "" || req.Password == "" {
			return apierr.BadRequest("username and password are required", nil)
		}

		user, hashedPassword, err := dbUser.GetByUsername(ctx, req.Username)
		if errors.Is(err, tdb.ErrMissing) {
			return apierr.Unauthorized("username or password is wrong", nil)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if !auth.VerifyPassword(hashedPassword, req.Password) {
			return apierr.Unauthorized("username or password is wrong", nil)
		}

		token, err := issuer.Issue(user)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apisession.TokenResponse{Token: token})
	}
}
