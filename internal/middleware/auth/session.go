// Package auth carries the route middleware for both identity schemes:
// store-backed sessions for administrative users and bearer tokens for
// staff. Which scheme guards a route is decided at registration time.
package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/session"
)

const (
	ContextUser   = "user"
	ContextClaims = "claims"
)

// RequireSession authenticates via the session cookie and re-sets the
// rolling cookie on every request.
func RequireSession(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(session.CookieName)
			if err != nil || ck.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			user, renewed, err := m.Resolve(ck.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			c.SetCookie(renewed)
			c.Set(ContextUser, user)
			return next(c)
		}
	}
}

// SessionUser returns the authenticated user set by RequireSession.
func SessionUser(c echo.Context) *models.User {
	if u, ok := c.Get(ContextUser).(*models.User); ok {
		return u
	}
	return nil
}
