package orders

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/config"
	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/money"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &Engine{DB: db}
}

func seedMenuItem(t *testing.T, db *gorm.DB, name string, price money.Cents) *models.MenuItem {
	t.Helper()
	cat := models.Category{Name: "Tacos-" + name}
	require.NoError(t, db.Create(&cat).Error)
	item := models.MenuItem{Name: name, Price: price, CategoryID: cat.ID, InStock: true}
	require.NoError(t, db.Create(&item).Error)
	return &item
}

func TestCreateOrderDefaults(t *testing.T) {
	e := newTestEngine(t)

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusActive, order.Status)
	require.Equal(t, DefaultTaxRate, order.TaxRate)
	require.Equal(t, money.Cents(0), order.Total)
}

func TestCreateOrderInvalidStatus(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.CreateOrder(context.Background(), CreateOrderParams{Status: "cancelled"})
	require.True(t, apperrors.IsKind(err, apperrors.Validation))
}

func TestCreateOrderInvalidTaxRate(t *testing.T) {
	e := newTestEngine(t)

	bad := 1.5
	_, err := e.CreateOrder(context.Background(), CreateOrderParams{TaxRate: &bad})
	require.True(t, apperrors.IsKind(err, apperrors.Validation))
}

func TestAddItemsRecomputesTotal(t *testing.T) {
	e := newTestEngine(t)
	item := seedMenuItem(t, e.DB, "Taco al pastor", money.FromFloat(9.50))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)

	_, err = e.AddItem(context.Background(), AddItemParams{
		OrderID: order.ID, MenuItemID: item.ID, Quantity: 2,
	})
	require.NoError(t, err)

	var got models.Order
	require.NoError(t, e.DB.First(&got, order.ID).Error)
	require.Equal(t, money.FromFloat(19.00), got.Subtotal)
	require.Equal(t, money.Cents(0), got.Tax)
	require.Equal(t, money.FromFloat(19.00), got.Total)
}

func TestVatInvoiceAppliesFrozenRate(t *testing.T) {
	e := newTestEngine(t)
	item := seedMenuItem(t, e.DB, "Pozole", money.FromFloat(100.00))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{WithVatInvoice: true})
	require.NoError(t, err)

	_, err = e.AddItem(context.Background(), AddItemParams{
		OrderID: order.ID, MenuItemID: item.ID, Quantity: 1,
	})
	require.NoError(t, err)

	var got models.Order
	require.NoError(t, e.DB.First(&got, order.ID).Error)
	require.Equal(t, money.FromFloat(100.00), got.Subtotal)
	require.Equal(t, money.FromFloat(16.00), got.Tax)
	require.Equal(t, money.FromFloat(116.00), got.Total)
}

func TestToggleVatInvoiceRecomputes(t *testing.T) {
	e := newTestEngine(t)
	item := seedMenuItem(t, e.DB, "Agua fresca", money.FromFloat(25.00))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)
	_, err = e.AddItem(context.Background(), AddItemParams{
		OrderID: order.ID, MenuItemID: item.ID, Quantity: 2,
	})
	require.NoError(t, err)

	on := true
	updated, err := e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{WithVatInvoice: &on})
	require.NoError(t, err)
	require.Equal(t, money.FromFloat(8.00), updated.Tax)
	require.Equal(t, money.FromFloat(58.00), updated.Total)

	off := false
	updated, err = e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{WithVatInvoice: &off})
	require.NoError(t, err)
	require.Equal(t, money.Cents(0), updated.Tax)
	require.Equal(t, money.FromFloat(50.00), updated.Total)
}

func TestPriceSnapshotSurvivesMenuChange(t *testing.T) {
	e := newTestEngine(t)
	item := seedMenuItem(t, e.DB, "Torta", money.FromFloat(45.00))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)
	line, err := e.AddItem(context.Background(), AddItemParams{
		OrderID: order.ID, MenuItemID: item.ID, Quantity: 1,
	})
	require.NoError(t, err)
	require.Equal(t, money.FromFloat(45.00), line.Price)

	require.NoError(t, e.DB.Model(&models.MenuItem{}).
		Where("id = ?", item.ID).
		Update("price", money.FromFloat(60.00)).Error)

	var got models.OrderItem
	require.NoError(t, e.DB.First(&got, line.ID).Error)
	require.Equal(t, money.FromFloat(45.00), got.Price)

	var reloaded models.Order
	require.NoError(t, e.DB.First(&reloaded, order.ID).Error)
	require.Equal(t, money.FromFloat(45.00), reloaded.Total)
}

func TestDeleteItemRecomputes(t *testing.T) {
	e := newTestEngine(t)
	taco := seedMenuItem(t, e.DB, "Taco", money.FromFloat(9.50))
	soda := seedMenuItem(t, e.DB, "Refresco", money.FromFloat(3.00))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)
	_, err = e.AddItem(context.Background(), AddItemParams{OrderID: order.ID, MenuItemID: taco.ID, Quantity: 2})
	require.NoError(t, err)
	line, err := e.AddItem(context.Background(), AddItemParams{OrderID: order.ID, MenuItemID: soda.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, e.DeleteItem(context.Background(), line.ID))

	var got models.Order
	require.NoError(t, e.DB.First(&got, order.ID).Error)
	require.Equal(t, money.FromFloat(19.00), got.Total)
}

func TestUpdateItemQuantityRecomputes(t *testing.T) {
	e := newTestEngine(t)
	item := seedMenuItem(t, e.DB, "Quesadilla", money.FromFloat(12.00))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)
	line, err := e.AddItem(context.Background(), AddItemParams{OrderID: order.ID, MenuItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	qty := 3
	_, err = e.UpdateItem(context.Background(), line.ID, UpdateItemParams{Quantity: &qty})
	require.NoError(t, err)

	var got models.Order
	require.NoError(t, e.DB.First(&got, order.ID).Error)
	require.Equal(t, money.FromFloat(36.00), got.Total)
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	e := newTestEngine(t)
	item := seedMenuItem(t, e.DB, "Flan", money.FromFloat(5.00))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)

	_, err = e.AddItem(context.Background(), AddItemParams{OrderID: order.ID, MenuItemID: item.ID, Quantity: 0})
	require.True(t, apperrors.IsKind(err, apperrors.Validation))
}

func TestAddItemUnknownOrder(t *testing.T) {
	e := newTestEngine(t)
	item := seedMenuItem(t, e.DB, "Sopa", money.FromFloat(8.00))

	_, err := e.AddItem(context.Background(), AddItemParams{OrderID: 999, MenuItemID: item.ID, Quantity: 1})
	require.True(t, apperrors.IsKind(err, apperrors.NotFound))
}

func TestAddItemUnknownMenuItem(t *testing.T) {
	e := newTestEngine(t)

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)

	_, err = e.AddItem(context.Background(), AddItemParams{OrderID: order.ID, MenuItemID: 999, Quantity: 1})
	require.True(t, apperrors.IsKind(err, apperrors.NotFound))
}

func TestOccupiedTableWithOpenOrderConflicts(t *testing.T) {
	e := newTestEngine(t)

	table := models.RestaurantTable{Number: 7, Seats: 4, Status: models.TableStatusOccupied}
	require.NoError(t, e.DB.Create(&table).Error)

	_, err := e.CreateOrder(context.Background(), CreateOrderParams{TableID: &table.ID})
	require.NoError(t, err)

	_, err = e.CreateOrder(context.Background(), CreateOrderParams{TableID: &table.ID})
	require.True(t, apperrors.IsKind(err, apperrors.Conflict))
	require.Contains(t, err.Error(), "La mesa 7")
}

func TestOccupiedTableWithCompletedOrderAccepts(t *testing.T) {
	e := newTestEngine(t)

	table := models.RestaurantTable{Number: 3, Seats: 2, Status: models.TableStatusOccupied}
	require.NoError(t, e.DB.Create(&table).Error)

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{TableID: &table.ID})
	require.NoError(t, err)
	done := models.OrderStatusCompleted
	_, err = e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{Status: &done})
	require.NoError(t, err)

	_, err = e.CreateOrder(context.Background(), CreateOrderParams{TableID: &table.ID})
	require.NoError(t, err)
}

func TestInactiveStaffConflicts(t *testing.T) {
	e := newTestEngine(t)

	role := models.Role{Name: "waiter"}
	require.NoError(t, e.DB.Create(&role).Error)
	member := models.Staff{Name: "Pedro", RoleID: role.ID, RfcNumber: "PEPJ801231AB1", IsActive: false}
	require.NoError(t, e.DB.Create(&member).Error)

	_, err := e.CreateOrder(context.Background(), CreateOrderParams{StaffID: &member.ID})
	require.True(t, apperrors.IsKind(err, apperrors.Conflict))
}

func TestStrictTransitions(t *testing.T) {
	e := newTestEngine(t)
	e.Strict = true

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{Status: models.OrderStatusPending})
	require.NoError(t, err)

	// same-status update is idempotent
	pending := models.OrderStatusPending
	_, err = e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{Status: &pending})
	require.NoError(t, err)

	// pending cannot jump straight to completed
	completed := models.OrderStatusCompleted
	_, err = e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{Status: &completed})
	require.True(t, apperrors.IsKind(err, apperrors.Conflict))

	active := models.OrderStatusActive
	_, err = e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{Status: &active})
	require.NoError(t, err)
	_, err = e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{Status: &completed})
	require.NoError(t, err)

	// completed is terminal
	_, err = e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{Status: &active})
	require.True(t, apperrors.IsKind(err, apperrors.Conflict))
}

func TestPermissiveTransitions(t *testing.T) {
	e := newTestEngine(t)

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{Status: models.OrderStatusCompleted})
	require.NoError(t, err)

	pending := models.OrderStatusPending
	_, err = e.UpdateOrder(context.Background(), order.ID, UpdateOrderParams{Status: &pending})
	require.NoError(t, err)
}

func TestDeleteOrderWithItemsConflicts(t *testing.T) {
	e := newTestEngine(t)
	item := seedMenuItem(t, e.DB, "Tamal", money.FromFloat(7.00))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)
	line, err := e.AddItem(context.Background(), AddItemParams{OrderID: order.ID, MenuItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	err = e.DeleteOrder(context.Background(), order.ID)
	require.True(t, apperrors.IsKind(err, apperrors.Conflict))

	require.NoError(t, e.DeleteItem(context.Background(), line.ID))
	require.NoError(t, e.DeleteOrder(context.Background(), order.ID))
}

func TestItemsReturnsInInsertionOrder(t *testing.T) {
	e := newTestEngine(t)
	first := seedMenuItem(t, e.DB, "Primero", money.FromFloat(1.00))
	second := seedMenuItem(t, e.DB, "Segundo", money.FromFloat(2.00))

	order, err := e.CreateOrder(context.Background(), CreateOrderParams{})
	require.NoError(t, err)
	_, err = e.AddItem(context.Background(), AddItemParams{OrderID: order.ID, MenuItemID: first.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = e.AddItem(context.Background(), AddItemParams{OrderID: order.ID, MenuItemID: second.ID, Quantity: 1})
	require.NoError(t, err)

	items, err := e.Items(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, first.ID, items[0].MenuItemID)
	require.Equal(t, second.ID, items[1].MenuItemID)
}
