// Package orders owns the order state machine and keeps the persisted
// totals consistent with the order's line items. Every mutation that
// can invalidate a total runs the recompute inside the same
// transaction.
package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/logging"
	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/money"
)

const DefaultTaxRate = 0.16

type Engine struct {
	DB *gorm.DB
	// Strict rejects status changes outside pending→active→completed.
	// The permissive default matches how the floor staff actually use
	// the status control.
	Strict bool
}

func validStatus(s string) bool {
	switch s {
	case models.OrderStatusPending, models.OrderStatusActive, models.OrderStatusCompleted:
		return true
	}
	return false
}

func allowedTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case models.OrderStatusPending:
		return to == models.OrderStatusActive
	case models.OrderStatusActive:
		return to == models.OrderStatusCompleted
	}
	return false
}

type CreateOrderParams struct {
	TableID        *uint
	StaffID        *uint
	UserID         *uint
	Status         string
	Notes          string
	WithVatInvoice bool
	TaxRate        *float64
}

func (e *Engine) CreateOrder(ctx context.Context, p CreateOrderParams) (*models.Order, error) {
	if p.Status == "" {
		p.Status = models.OrderStatusActive
	}
	if !validStatus(p.Status) {
		return nil, apperrors.ValidationError("invalid order status %q", p.Status)
	}

	rate := DefaultTaxRate
	if p.TaxRate != nil {
		if *p.TaxRate < 0 || *p.TaxRate >= 1 {
			return nil, apperrors.ValidationError("invalid tax rate")
		}
		rate = *p.TaxRate
	}

	order := &models.Order{
		TableID:        p.TableID,
		StaffID:        p.StaffID,
		UserID:         p.UserID,
		Status:         p.Status,
		TaxRate:        rate,
		Notes:          p.Notes,
		WithVatInvoice: p.WithVatInvoice,
	}

	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.TableID != nil {
			if err := e.checkTable(tx, *p.TableID); err != nil {
				return err
			}
		}
		if p.StaffID != nil {
			if err := checkStaff(tx, *p.StaffID); err != nil {
				return err
			}
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order_created", "order_id", order.ID, "status", order.Status)
	return order, nil
}

// checkTable rejects orders against an occupied table that already has
// an open order. The dashboard used to filter this client-side only.
func (e *Engine) checkTable(tx *gorm.DB, tableID uint) error {
	var table models.RestaurantTable
	if err := tx.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundError("Table not found")
		}
		return err
	}
	if table.Status != models.TableStatusOccupied {
		return nil
	}
	var open int64
	err := tx.Model(&models.Order{}).
		Where("table_id = ? AND status <> ?", tableID, models.OrderStatusCompleted).
		Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return apperrors.ConflictError("La mesa %d ya tiene una orden abierta", table.Number)
	}
	return nil
}

func checkStaff(tx *gorm.DB, staffID uint) error {
	var member models.Staff
	if err := tx.First(&member, staffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundError("Staff member not found")
		}
		return err
	}
	if !member.IsActive {
		return apperrors.ConflictError("Staff member %q is not active", member.Name)
	}
	return nil
}

// UpdateOrderParams carries the client-mutable order fields. The
// subtotal/tax/total columns have no representation here on purpose:
// they belong to the engine.
type UpdateOrderParams struct {
	TableID        *uint
	StaffID        *uint
	Status         *string
	Notes          *string
	WithVatInvoice *bool
}

func (e *Engine) UpdateOrder(ctx context.Context, id uint, p UpdateOrderParams) (*models.Order, error) {
	var order models.Order
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundError("Order not found")
			}
			return err
		}

		if p.Status != nil {
			if !validStatus(*p.Status) {
				return apperrors.ValidationError("invalid order status %q", *p.Status)
			}
			if e.Strict && !allowedTransition(order.Status, *p.Status) {
				return apperrors.ConflictError("cannot move order from %s to %s", order.Status, *p.Status)
			}
			order.Status = *p.Status
		}
		if p.TableID != nil {
			if err := e.checkTable(tx, *p.TableID); err != nil {
				return err
			}
			order.TableID = p.TableID
		}
		if p.StaffID != nil {
			if err := checkStaff(tx, *p.StaffID); err != nil {
				return err
			}
			order.StaffID = p.StaffID
		}
		if p.Notes != nil {
			order.Notes = *p.Notes
		}

		recalc := false
		if p.WithVatInvoice != nil && *p.WithVatInvoice != order.WithVatInvoice {
			order.WithVatInvoice = *p.WithVatInvoice
			recalc = true
		}
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		if recalc {
			return e.recompute(tx, &order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (e *Engine) DeleteOrder(ctx context.Context, id uint) error {
	return e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundError("Order not found")
			}
			return err
		}
		var items int64
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return apperrors.ConflictError("order %d still has %d items", id, items)
		}
		return tx.Delete(&order).Error
	})
}

type AddItemParams struct {
	OrderID    uint
	MenuItemID uint
	Quantity   int
	// Price is the unit price snapshot. Zero means "use the current
	// menu price".
	Price money.Cents
	Notes string
}

func (e *Engine) AddItem(ctx context.Context, p AddItemParams) (*models.OrderItem, error) {
	if p.Quantity < 1 {
		return nil, apperrors.ValidationError("quantity must be at least 1")
	}

	item := &models.OrderItem{
		OrderID:    p.OrderID,
		MenuItemID: p.MenuItemID,
		Quantity:   p.Quantity,
		Price:      p.Price,
		Notes:      p.Notes,
	}

	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, p.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundError("Order not found")
			}
			return err
		}

		var menuItem models.MenuItem
		if err := tx.First(&menuItem, p.MenuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundError("Menu item not found")
			}
			return err
		}
		if item.Price <= 0 {
			item.Price = menuItem.Price
		}

		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return e.recompute(tx, &order)
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order_item_added",
		"order_id", p.OrderID, "menu_item_id", p.MenuItemID, "quantity", p.Quantity)
	return item, nil
}

type UpdateItemParams struct {
	Quantity *int
	Price    *money.Cents
	Notes    *string
}

func (e *Engine) UpdateItem(ctx context.Context, id uint, p UpdateItemParams) (*models.OrderItem, error) {
	var item models.OrderItem
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundError("Order item not found")
			}
			return err
		}

		recalc := false
		if p.Quantity != nil {
			if *p.Quantity < 1 {
				return apperrors.ValidationError("quantity must be at least 1")
			}
			item.Quantity = *p.Quantity
			recalc = true
		}
		if p.Price != nil {
			if *p.Price <= 0 {
				return apperrors.ValidationError("price must be positive")
			}
			item.Price = *p.Price
			recalc = true
		}
		if p.Notes != nil {
			item.Notes = *p.Notes
		}

		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		if !recalc {
			return nil
		}
		var order models.Order
		if err := tx.First(&order, item.OrderID).Error; err != nil {
			return err
		}
		return e.recompute(tx, &order)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (e *Engine) DeleteItem(ctx context.Context, id uint) error {
	return e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundError("Order item not found")
			}
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		var order models.Order
		if err := tx.First(&order, item.OrderID).Error; err != nil {
			return err
		}
		return e.recompute(tx, &order)
	})
}

// Items returns an order's line items in insertion order.
func (e *Engine) Items(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := e.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// recompute re-derives subtotal, tax and total from the current line
// items and persists them. Tax applies only to orders flagged for a
// VAT invoice; the rate is the one frozen on the order row.
func (e *Engine) recompute(tx *gorm.DB, order *models.Order) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}

	var subtotal money.Cents
	for _, it := range items {
		subtotal += it.Price.Mul(it.Quantity)
	}

	var tax money.Cents
	if order.WithVatInvoice {
		tax = subtotal.ApplyRate(order.TaxRate)
	}

	order.Subtotal = subtotal
	order.Tax = tax
	order.Total = subtotal + tax

	return tx.Model(order).
		Select("subtotal", "tax", "total").
		Updates(map[string]interface{}{
			"subtotal": order.Subtotal,
			"tax":      order.Tax,
			"total":    order.Total,
		}).Error
}
