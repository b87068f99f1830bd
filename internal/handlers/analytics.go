package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/money"
)

type AnalyticsHandler struct {
	DB *gorm.DB
}

type dailySales struct {
	TotalSales money.Cents `json:"totalSales"`
	OrderCount int64       `json:"orderCount"`
}

func (h *AnalyticsHandler) DailySales(c echo.Context) error {
	day := time.Now()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return fail(c, apperrors.ValidationError("invalid date, expected YYYY-MM-DD"))
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var out dailySales
	err := h.DB.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS total_sales, COUNT(id) AS order_count").
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&out).Error
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type categorySales struct {
	Category   string      `json:"category"`
	TotalSales money.Cents `json:"totalSales"`
}

// SalesByCategory sums line totals of completed orders, so an order
// spanning categories contributes each line to its own category.
func (h *AnalyticsHandler) SalesByCategory(c echo.Context) error {
	var rows []categorySales
	err := h.DB.
		Table("order_items").
		Select("categories.name AS category, COALESCE(SUM(order_items.price * order_items.quantity), 0) AS total_sales").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Joins("JOIN categories ON categories.id = menu_items.category_id").
		Where("orders.status = ?", models.OrderStatusCompleted).
		Group("categories.name").
		Order("total_sales DESC").
		Scan(&rows).Error
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

type popularItem struct {
	MenuItemID   uint   `json:"menuItemId"`
	MenuItemName string `json:"menuItemName"`
	OrderCount   int64  `json:"orderCount"`
}

func (h *AnalyticsHandler) PopularItems(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), 5)
	if limit < 1 {
		return fail(c, apperrors.ValidationError("limit must be positive"))
	}

	var rows []popularItem
	err := h.DB.
		Table("order_items").
		Select("menu_items.id AS menu_item_id, menu_items.name AS menu_item_name, COUNT(order_items.id) AS order_count").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Group("menu_items.id, menu_items.name").
		Order("order_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

type staffSales struct {
	StaffID    uint        `json:"staffId"`
	StaffName  string      `json:"staffName"`
	TotalSales money.Cents `json:"totalSales"`
}

func (h *AnalyticsHandler) SalesByStaff(c echo.Context) error {
	var rows []staffSales
	err := h.DB.
		Table("orders").
		Select("staff.id AS staff_id, staff.name AS staff_name, COALESCE(SUM(orders.total), 0) AS total_sales").
		Joins("JOIN staff ON staff.id = orders.staff_id").
		Where("orders.status = ?", models.OrderStatusCompleted).
		Group("staff.id, staff.name").
		Order("total_sales DESC").
		Scan(&rows).Error
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
