package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/models"
)

// RequireRoles resolves the caller's role name and rejects callers
// outside the allow-list. Must run after RequireBearer or
// RequireSession.
func RequireRoles(db *gorm.DB, allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var roleID uint
			if claims := BearerClaims(c); claims != nil {
				roleID = claims.RoleID
			} else if user := SessionUser(c); user != nil {
				roleID = user.RoleID
			} else {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			var role models.Role
			if err := db.First(&role, roleID).Error; err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "No tiene permiso para realizar esta acción")
			}

			for _, name := range allowed {
				if role.Name == name {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "No tiene permiso para realizar esta acción")
		}
	}
}
