package handlers

import (
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/logging"
	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/money"
	"github.com/casamorales/restaurant-backend/internal/mykafka"
	"github.com/casamorales/restaurant-backend/internal/service/search"
	"github.com/casamorales/restaurant-backend/internal/util"
)

type MenuHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
}

type menuItemRequest struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Price       *money.Cents `json:"price"`
	ImageURL    *string      `json:"image_url"`
	InStock     *bool        `json:"in_stock"`
	CategoryID  *uint        `json:"category_id"`
}

func searchText(name, description string) string {
	return strings.TrimSpace(name + " " + description)
}

func (h *MenuHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.MenuItem{})
	if cat := c.QueryParam("category"); cat != "" {
		catID := parseIntDefault(cat, 0)
		if catID <= 0 {
			return fail(c, apperrors.ValidationError("invalid category id"))
		}
		q = q.Where("category_id = ?", catID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fail(c, err)
	}

	var items []models.MenuItem
	if err := q.Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *MenuHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		return fail(c, notFound(err, "Menu item"))
	}
	return c.JSON(http.StatusOK, item)
}

// Search uses Elasticsearch when configured, the database otherwise.
func (h *MenuHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return fail(c, apperrors.ValidationError("Se requiere un término de búsqueda"))
	}

	if h.ES != nil {
		page := parseIntDefault(c.QueryParam("page"), 1)
		size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
		from, limit := util.Calculate(page, size)

		total, items, err := search.Search(c.Request().Context(), h.ES, search.MenuIndex, q, from, limit)
		if err != nil {
			logging.FromContext(c.Request().Context()).Error("es_search_failed", "error", err)
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
	}

	var items []models.MenuItem
	pattern := "%" + strings.ToLower(q) + "%"
	err := h.DB.Where("LOWER(search_text) LIKE ?", pattern).Order("name ASC").Find(&items).Error
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": int64(len(items)), "items": items})
}

func (h *MenuHandler) Create(c echo.Context) error {
	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return fail(c, apperrors.ValidationError("name is required"))
	}
	if req.Price == nil || *req.Price <= 0 {
		return fail(c, apperrors.ValidationError("price must be positive"))
	}
	if req.CategoryID == nil {
		return fail(c, apperrors.ValidationError("category_id is required"))
	}
	var category models.Category
	if err := h.DB.First(&category, *req.CategoryID).Error; err != nil {
		return fail(c, notFound(err, "Category"))
	}

	item := models.MenuItem{
		Name:       *req.Name,
		Price:      *req.Price,
		CategoryID: *req.CategoryID,
		InStock:    true,
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.ImageURL != nil {
		item.ImageURL = *req.ImageURL
	}
	if req.InStock != nil {
		item.InStock = *req.InStock
	}
	item.SearchText = searchText(item.Name, item.Description)

	if err := h.DB.Create(&item).Error; err != nil {
		return fail(c, err)
	}

	h.index(c, &item)
	publish(c, h.Producer, "menu_events", item.Name, map[string]interface{}{
		"type":         "menu_item_created",
		"menu_item_id": item.ID,
	})

	return c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}

	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		return fail(c, notFound(err, "Menu item"))
	}

	if req.Name != nil {
		if *req.Name == "" {
			return fail(c, apperrors.ValidationError("name cannot be empty"))
		}
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return fail(c, apperrors.ValidationError("price must be positive"))
		}
		item.Price = *req.Price
	}
	if req.ImageURL != nil {
		item.ImageURL = *req.ImageURL
	}
	if req.InStock != nil {
		item.InStock = *req.InStock
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := h.DB.First(&category, *req.CategoryID).Error; err != nil {
			return fail(c, notFound(err, "Category"))
		}
		item.CategoryID = *req.CategoryID
	}
	// derived search text follows the name/description pair
	item.SearchText = searchText(item.Name, item.Description)

	if err := h.DB.Save(&item).Error; err != nil {
		return fail(c, err)
	}

	h.index(c, &item)
	publish(c, h.Producer, "menu_events", item.Name, map[string]interface{}{
		"type":         "menu_item_updated",
		"menu_item_id": item.ID,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	if err := h.DB.Delete(&models.MenuItem{}, id).Error; err != nil {
		return fail(c, err)
	}

	if h.ES != nil {
		if err := search.DeleteMenuItem(c.Request().Context(), h.ES, search.MenuIndex, id); err != nil {
			logging.FromContext(c.Request().Context()).Error("es_delete_failed", "error", err)
		}
	}
	publish(c, h.Producer, "menu_events", c.Param("id"), map[string]interface{}{
		"type":         "menu_item_deleted",
		"menu_item_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *MenuHandler) index(c echo.Context, item *models.MenuItem) {
	if h.ES == nil {
		return
	}
	if err := search.IndexMenuItem(c.Request().Context(), h.ES, search.MenuIndex, item); err != nil {
		logging.FromContext(c.Request().Context()).Error("es_index_failed", "error", err)
	}
}
