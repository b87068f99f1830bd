package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/middleware/auth"
	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/money"
	"github.com/casamorales/restaurant-backend/internal/mykafka"
	"github.com/casamorales/restaurant-backend/internal/orders"
)

type OrderHandler struct {
	DB       *gorm.DB
	Engine   *orders.Engine
	Producer *mykafka.Producer
}

const dateLayout = "2006-01-02"

func (h *OrderHandler) List(c echo.Context) error {
	q := h.DB.Model(&models.Order{}).Order("created_at DESC")

	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	start, end := c.QueryParam("startDate"), c.QueryParam("endDate")
	if start != "" && end != "" {
		startAt, err := time.Parse(dateLayout, start)
		if err != nil {
			return fail(c, apperrors.ValidationError("invalid startDate"))
		}
		endAt, err := time.Parse(dateLayout, end)
		if err != nil {
			return fail(c, apperrors.ValidationError("invalid endDate"))
		}
		q = q.Where("created_at >= ? AND created_at < ?", startAt, endAt.AddDate(0, 0, 1))
	}

	var list []models.Order
	if err := q.Find(&list).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var order models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		return fail(c, notFound(err, "Order"))
	}
	return c.JSON(http.StatusOK, order)
}

// orderPayload rejects any client attempt to write the engine-owned
// monetary columns.
type orderPayload struct {
	TableID        *uint    `json:"table_id"`
	StaffID        *uint    `json:"staff_id"`
	Status         *string  `json:"status"`
	Notes          *string  `json:"notes"`
	WithVatInvoice *bool    `json:"with_vat_invoice"`
	TaxRate        *float64 `json:"tax_rate"`
}

func bindOrderPayload(c echo.Context) (*orderPayload, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return nil, apperrors.ValidationError("invalid request body")
	}
	for _, owned := range []string{"total_amount", "total", "subtotal", "tax"} {
		if _, ok := raw[owned]; ok {
			return nil, apperrors.ValidationError("%s is computed by the server and cannot be set", owned)
		}
	}

	buf, _ := json.Marshal(raw)
	var p orderPayload
	if err := json.Unmarshal(buf, &p); err != nil {
		return nil, apperrors.ValidationError("invalid request body")
	}
	return &p, nil
}

func (h *OrderHandler) Create(c echo.Context) error {
	p, err := bindOrderPayload(c)
	if err != nil {
		return fail(c, err)
	}

	params := orders.CreateOrderParams{
		TableID: p.TableID,
		StaffID: p.StaffID,
		TaxRate: p.TaxRate,
	}
	if p.Status != nil {
		params.Status = *p.Status
	}
	if p.Notes != nil {
		params.Notes = *p.Notes
	}
	if p.WithVatInvoice != nil {
		params.WithVatInvoice = *p.WithVatInvoice
	}
	if user := auth.SessionUser(c); user != nil {
		params.UserID = &user.ID
	} else if claims := auth.BearerClaims(c); claims != nil && claims.Type == "user" {
		params.UserID = &claims.ID
	}

	order, err := h.Engine.CreateOrder(c.Request().Context(), params)
	if err != nil {
		return fail(c, err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]interface{}{
		"type":     "order_created",
		"order_id": order.ID,
		"status":   order.Status,
	})
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	p, err := bindOrderPayload(c)
	if err != nil {
		return fail(c, err)
	}

	order, err := h.Engine.UpdateOrder(c.Request().Context(), id, orders.UpdateOrderParams{
		TableID:        p.TableID,
		StaffID:        p.StaffID,
		Status:         p.Status,
		Notes:          p.Notes,
		WithVatInvoice: p.WithVatInvoice,
	})
	if err != nil {
		return fail(c, err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]interface{}{
		"type":     "order_updated",
		"order_id": order.ID,
		"status":   order.Status,
	})
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Engine.DeleteOrder(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(id), map[string]interface{}{
		"type":     "order_deleted",
		"order_id": id,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) ListItems(c echo.Context) error {
	orderID, err := pathID(c, "orderId")
	if err != nil {
		return fail(c, err)
	}
	items, err := h.Engine.Items(c.Request().Context(), orderID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *OrderHandler) CreateItem(c echo.Context) error {
	var req struct {
		OrderID    uint        `json:"order_id"`
		MenuItemID uint        `json:"menu_item_id"`
		Quantity   int         `json:"quantity"`
		Price      money.Cents `json:"price"`
		Notes      string      `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}

	item, err := h.Engine.AddItem(c.Request().Context(), orders.AddItemParams{
		OrderID:    req.OrderID,
		MenuItemID: req.MenuItemID,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Notes:      req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(req.OrderID), map[string]interface{}{
		"type":     "order_item_added",
		"order_id": req.OrderID,
		"item_id":  item.ID,
	})
	return c.JSON(http.StatusCreated, item)
}

func (h *OrderHandler) UpdateItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		Quantity *int         `json:"quantity"`
		Price    *money.Cents `json:"price"`
		Notes    *string      `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}

	item, err := h.Engine.UpdateItem(c.Request().Context(), id, orders.UpdateItemParams{
		Quantity: req.Quantity,
		Price:    req.Price,
		Notes:    req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(item.OrderID), map[string]interface{}{
		"type":     "order_item_updated",
		"order_id": item.OrderID,
		"item_id":  item.ID,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *OrderHandler) DeleteItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Engine.DeleteItem(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(id), map[string]interface{}{
		"type":    "order_item_deleted",
		"item_id": id,
	})
	return c.NoContent(http.StatusNoContent)
}
