package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/casamorales/restaurant-backend/internal/token"
)

// RequireBearer authenticates via an Authorization: Bearer header.
func RequireBearer(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
			}

			claims, err := token.Verify(strings.TrimPrefix(h, "Bearer "), secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(ContextClaims, claims)
			return next(c)
		}
	}
}

// BearerClaims returns the verified claims set by RequireBearer.
func BearerClaims(c echo.Context) *token.Claims {
	if cl, ok := c.Get(ContextClaims).(*token.Claims); ok {
		return cl
	}
	return nil
}
