package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/handlers"
	"github.com/casamorales/restaurant-backend/internal/middleware/auth"
	"github.com/casamorales/restaurant-backend/internal/session"
)

type Deps struct {
	DB        *gorm.DB
	Sessions  *session.Manager
	JWTSecret []byte

	AuthHandler      *handlers.AuthHandler
	MenuHandler      *handlers.MenuHandler
	CategoryHandler  *handlers.CategoryHandler
	StaffHandler     *handlers.StaffHandler
	TableHandler     *handlers.TableHandler
	OrderHandler     *handlers.OrderHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	UserHandler      *handlers.UserHandler
}

// Register wires every route. Reads are public, mutations require the
// session scheme, and the account-management surface requires a bearer
// token with the admin role — mirroring who actually calls what.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	requireSession := auth.RequireSession(d.Sessions)
	requireBearer := auth.RequireBearer(d.JWTSecret)
	adminOnly := auth.RequireRoles(d.DB, "admin")

	api := e.Group("/api")

	// session scheme
	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/logout", d.AuthHandler.Logout, requireSession)
	api.GET("/user", d.AuthHandler.CurrentUser, requireSession)

	// bearer scheme
	e.POST("/auth/login", d.AuthHandler.TokenLogin)
	e.POST("/auth/logout", d.AuthHandler.TokenLogout, requireBearer)

	api.GET("/menu", d.MenuHandler.List)
	api.GET("/menu/search", d.MenuHandler.Search)
	api.GET("/menu/:id", d.MenuHandler.Get)
	api.POST("/menu", d.MenuHandler.Create, requireSession)
	api.PUT("/menu/:id", d.MenuHandler.Update, requireSession)
	api.DELETE("/menu/:id", d.MenuHandler.Delete, requireSession)

	api.GET("/categories", d.CategoryHandler.List)
	api.GET("/categories/:id", d.CategoryHandler.Get)
	api.POST("/categories", d.CategoryHandler.Create, requireSession)
	api.PUT("/categories/:id", d.CategoryHandler.Update, requireSession)
	api.DELETE("/categories/:id", d.CategoryHandler.Delete, requireSession)

	api.GET("/staff", d.StaffHandler.List)
	api.GET("/staff/:id", d.StaffHandler.Get)
	api.POST("/staff", d.StaffHandler.Create, requireSession)
	api.PUT("/staff/:id", d.StaffHandler.Update, requireSession)
	api.DELETE("/staff/:id", d.StaffHandler.Delete, requireSession)

	api.GET("/tables", d.TableHandler.List)
	api.GET("/tables/:id", d.TableHandler.Get)
	api.POST("/tables", d.TableHandler.Create, requireSession)
	api.PUT("/tables/:id", d.TableHandler.Update, requireSession)
	api.DELETE("/tables/:id", d.TableHandler.Delete, requireSession)

	api.GET("/orders", d.OrderHandler.List)
	api.GET("/orders/:id", d.OrderHandler.Get)
	api.GET("/orders/:orderId/items", d.OrderHandler.ListItems)
	api.POST("/orders", d.OrderHandler.Create, requireSession)
	api.PUT("/orders/:id", d.OrderHandler.Update, requireSession)
	api.DELETE("/orders/:id", d.OrderHandler.Delete, requireSession)

	api.POST("/order-items", d.OrderHandler.CreateItem, requireSession)
	api.PUT("/order-items/:id", d.OrderHandler.UpdateItem, requireSession)
	api.DELETE("/order-items/:id", d.OrderHandler.DeleteItem, requireSession)

	analytics := api.Group("/analytics", requireSession)
	analytics.GET("/daily-sales", d.AnalyticsHandler.DailySales)
	analytics.GET("/sales-by-category", d.AnalyticsHandler.SalesByCategory)
	analytics.GET("/popular-items", d.AnalyticsHandler.PopularItems)
	analytics.GET("/sales-by-staff", d.AnalyticsHandler.SalesByStaff)

	users := e.Group("/users", requireBearer, adminOnly)
	users.GET("", d.UserHandler.List)
	users.POST("", d.UserHandler.Create)

	e.GET("/roles", d.UserHandler.ListRoles, requireBearer)
}
