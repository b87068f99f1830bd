package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/models"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func (h *CategoryHandler) List(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		return fail(c, notFound(err, "Category"))
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}
	if req.Name == "" {
		return fail(c, apperrors.ValidationError("name is required"))
	}

	category := models.Category{Name: req.Name, Description: req.Description}
	if err := h.DB.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, apperrors.ConflictError("La categoría %q ya existe", req.Name))
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		return fail(c, notFound(err, "Category"))
	}
	if req.Name != nil {
		if *req.Name == "" {
			return fail(c, apperrors.ValidationError("name cannot be empty"))
		}
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := h.DB.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, apperrors.ConflictError("La categoría %q ya existe", category.Name))
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var inUse int64
	if err := h.DB.Model(&models.MenuItem{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		return fail(c, err)
	}
	if inUse > 0 {
		return fail(c, apperrors.ConflictError("La categoría tiene %d elementos del menú", inUse))
	}

	if err := h.DB.Delete(&models.Category{}, id).Error; err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
