package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/models"
)

type TableHandler struct {
	DB *gorm.DB
}

func validTableStatus(s string) bool {
	switch s {
	case models.TableStatusAvailable, models.TableStatusReserved, models.TableStatusOccupied:
		return true
	}
	return false
}

func (h *TableHandler) List(c echo.Context) error {
	var tables []models.RestaurantTable
	if err := h.DB.Order("number ASC").Find(&tables).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tables)
}

func (h *TableHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var table models.RestaurantTable
	if err := h.DB.First(&table, id).Error; err != nil {
		return fail(c, notFound(err, "Table"))
	}
	return c.JSON(http.StatusOK, table)
}

func (h *TableHandler) Create(c echo.Context) error {
	var req struct {
		Number int    `json:"number"`
		Seats  int    `json:"seats"`
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}
	if req.Number <= 0 {
		return fail(c, apperrors.ValidationError("number must be positive"))
	}
	if req.Seats < 1 {
		return fail(c, apperrors.ValidationError("seats must be at least 1"))
	}
	if req.Status == "" {
		req.Status = models.TableStatusAvailable
	}
	if !validTableStatus(req.Status) {
		return fail(c, apperrors.ValidationError("invalid table status %q", req.Status))
	}

	table := models.RestaurantTable{Number: req.Number, Seats: req.Seats, Status: req.Status}
	if err := h.DB.Create(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, apperrors.ConflictError("La mesa %d ya existe", req.Number))
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, table)
}

func (h *TableHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Number *int    `json:"number"`
		Seats  *int    `json:"seats"`
		Status *string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}

	var table models.RestaurantTable
	if err := h.DB.First(&table, id).Error; err != nil {
		return fail(c, notFound(err, "Table"))
	}

	if req.Number != nil {
		if *req.Number <= 0 {
			return fail(c, apperrors.ValidationError("number must be positive"))
		}
		table.Number = *req.Number
	}
	if req.Seats != nil {
		if *req.Seats < 1 {
			return fail(c, apperrors.ValidationError("seats must be at least 1"))
		}
		table.Seats = *req.Seats
	}
	if req.Status != nil {
		if !validTableStatus(*req.Status) {
			return fail(c, apperrors.ValidationError("invalid table status %q", *req.Status))
		}
		table.Status = *req.Status
	}

	if err := h.DB.Save(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, apperrors.ConflictError("La mesa %d ya existe", table.Number))
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, table)
}

func (h *TableHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var open int64
	err = h.DB.Model(&models.Order{}).
		Where("table_id = ? AND status <> ?", id, models.OrderStatusCompleted).
		Count(&open).Error
	if err != nil {
		return fail(c, err)
	}
	if open > 0 {
		return fail(c, apperrors.ConflictError("La mesa tiene %d órdenes abiertas", open))
	}

	if err := h.DB.Delete(&models.RestaurantTable{}, id).Error; err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
