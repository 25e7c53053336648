package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// key under which the bearer's Identity is stored in echo.Context
const identityContextKey = "tom.identity"

// Middleware verifies the Authorization header and stores the bearer's
// Identity in the request context.
func Middleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(401, "bearer token is required")
			}

			identity, err := issuer.Verify(token)
			if err != nil {
				return echo.NewHTTPError(401, "token is not valid")
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

// SetIdentity stores the Identity as Middleware does.
func SetIdentity(c echo.Context, identity Identity) {
	c.Set(identityContextKey, identity)
}

// From reads the bearer's Identity stored by Middleware.
func From(c echo.Context) (Identity, bool) {
	identity, ok := c.Get(identityContextKey).(Identity)
	return identity, ok
}

// RequireSuperuser rejects requests whose bearer is not a superuser.
func RequireSuperuser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := From(c)
		if !ok || !identity.Superuser {
			return echo.NewHTTPError(403, "superuser is required")
		}
		return next(c)
	}
}
