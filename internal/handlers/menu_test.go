package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/money"
)

func TestCreateMenuItem(t *testing.T) {
	env := newTestEnv(t)
	cat := env.seedCategory("Tacos")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/menu", map[string]interface{}{
		"name":        "Taco al pastor",
		"description": "Con piña",
		"price":       9.50,
		"category_id": cat.ID,
	})
	require.NoError(t, env.M.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var item models.MenuItem
	decodeBody(t, rec, &item)
	require.Equal(t, money.FromFloat(9.50), item.Price)
	require.True(t, item.InStock)

	// derived column is persisted but never serialized
	var stored models.MenuItem
	require.NoError(t, env.DB.First(&stored, item.ID).Error)
	require.Equal(t, "Taco al pastor Con piña", stored.SearchText)
	require.NotContains(t, rec.Body.String(), "search_text")
}

func TestCreateMenuItemValidation(t *testing.T) {
	env := newTestEnv(t)
	cat := env.seedCategory("Tacos")

	for _, body := range []map[string]interface{}{
		{"price": 9.50, "category_id": cat.ID},
		{"name": "Taco", "category_id": cat.ID},
		{"name": "Taco", "price": 0, "category_id": cat.ID},
		{"name": "Taco", "price": 9.50},
	} {
		rec, c := env.doJSONRequest(http.MethodPost, "/api/menu", body)
		require.NoError(t, env.M.Create(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestCreateMenuItemUnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/menu", map[string]interface{}{
		"name": "Taco", "price": 9.50, "category_id": 99,
	})
	require.NoError(t, env.M.Create(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMenuPaginationAndCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	tacos := env.seedCategory("Tacos")
	bebidas := env.seedCategory("Bebidas")
	env.seedMenuItem("Taco", money.FromFloat(9.50), tacos.ID)
	env.seedMenuItem("Quesadilla", money.FromFloat(12.00), tacos.ID)
	env.seedMenuItem("Agua", money.FromFloat(3.00), bebidas.ID)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/menu?page=1&size=2", nil)
	require.NoError(t, env.M.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.MenuItem `json:"data"`
		Meta struct {
			Page  int   `json:"page"`
			Size  int   `json:"size"`
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 2)
	require.Equal(t, int64(3), resp.Meta.Total)

	rec, c = env.doJSONRequest(http.MethodGet, "/api/menu?category=2", nil)
	require.NoError(t, env.M.List(c))
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Agua", resp.Data[0].Name)
}

// with no Elasticsearch configured the search runs against the database
func TestMenuSearchFallsBackToDB(t *testing.T) {
	env := newTestEnv(t)
	cat := env.seedCategory("Tacos")
	env.seedMenuItem("Taco al pastor", money.FromFloat(9.50), cat.ID)
	env.seedMenuItem("Agua fresca", money.FromFloat(3.00), cat.ID)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/menu/search?q=PASTOR", nil)
	require.NoError(t, env.M.Search(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total int64             `json:"total"`
		Items []models.MenuItem `json:"items"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, int64(1), resp.Total)
	require.Equal(t, "Taco al pastor", resp.Items[0].Name)
}

func TestMenuSearchRequiresQuery(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/menu/search", nil)
	require.NoError(t, env.M.Search(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMenuItemRefreshesSearchText(t *testing.T) {
	env := newTestEnv(t)
	cat := env.seedCategory("Tacos")
	item := env.seedMenuItem("Taco", money.FromFloat(9.50), cat.ID)

	rec, c := env.doJSONRequest(http.MethodPut, "/api/menu/1", map[string]interface{}{
		"name": "Taco de canasta", "description": "Clásico",
	})
	env.withParam(c, "id", "1")
	require.NoError(t, env.M.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.MenuItem
	require.NoError(t, env.DB.First(&stored, item.ID).Error)
	require.Equal(t, "Taco de canasta Clásico", stored.SearchText)
	require.Equal(t, money.FromFloat(9.50), stored.Price)
}

func TestDeleteMenuItem(t *testing.T) {
	env := newTestEnv(t)
	cat := env.seedCategory("Tacos")
	item := env.seedMenuItem("Taco", money.FromFloat(9.50), cat.ID)

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/menu/1", nil)
	env.withParam(c, "id", "1")
	require.NoError(t, env.M.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.MenuItem{}).Where("id = ?", item.ID).Count(&count).Error)
	require.Zero(t, count)
}
