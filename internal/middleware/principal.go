package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/authz"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// SetPrincipal stores the resolved caller on the echo context
func SetPrincipal(c echo.Context, p models.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the caller resolved by an auth middleware
func PrincipalFrom(c echo.Context) (models.Principal, bool) {
	p, ok := c.Get(principalKey).(models.Principal)
	return p, ok
}

// RequireAdmin rejects callers without the ADMIN role
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if err := authz.RequireAdmin(p.Role); err != nil {
				return echo.NewHTTPError(http.StatusForbidden, err.Error())
			}
			return next(c)
		}
	}
}

// FirstOf tries each auth middleware in order and lets the request through on the first success.
// Only 401 rejections fall through to the next middleware.
func FirstOf(mws ...echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var err error
			for _, mw := range mws {
				passed := false
				err = mw(func(c echo.Context) error {
					passed = true
					return next(c)
				})(c)
				if passed {
					return err
				}
				var he *echo.HTTPError
				if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
					return err
				}
			}
			return err
		}
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}
