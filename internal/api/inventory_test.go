package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkeepapp/barkeep/backend/internal/model"
	"github.com/barkeepapp/barkeep/backend/internal/store"
)

func newInventoryRouter(t *testing.T, s store.Store) *gin.Engine {
	t.Helper()
	engine := gin.New()
	NewInventoryHandler(s).RegisterRoutes(engine.Group("/api"), passThrough)
	return engine
}

func createTestItem(t *testing.T, s store.Store, name, barcode string) *model.InventoryItem {
	t.Helper()
	in := model.ItemInput{Name: name, Quantity: 1, Unit: "bottle"}
	if barcode != "" {
		in.Barcode = &barcode
	}
	item, err := s.CreateItem(context.Background(), in)
	require.NoError(t, err)
	return item
}

func TestInventoryCRUDEndpoints(t *testing.T) {
	s := newTestStore(t)
	engine := newInventoryRouter(t, s)

	w := doJSON(t, engine, http.MethodPost, "/api/inventory", map[string]interface{}{
		"name":     "Campari",
		"quantity": 1,
		"unit":     "bottle",
		"category": "liqueur",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = doJSON(t, engine, http.MethodGet, "/api/inventory/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodPut, "/api/inventory/"+created.ID, map[string]interface{}{
		"quantity": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated model.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 2.0, updated.Quantity)
	assert.Equal(t, "Campari", updated.Name)

	w = doJSON(t, engine, http.MethodGet, "/api/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []model.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	w = doJSON(t, engine, http.MethodDelete, "/api/inventory/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/inventory/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInventoryValidation(t *testing.T) {
	s := newTestStore(t)
	engine := newInventoryRouter(t, s)

	w := doJSON(t, engine, http.MethodPost, "/api/inventory", map[string]interface{}{
		"name":     "",
		"quantity": 1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Item name is required")

	w = doJSON(t, engine, http.MethodPost, "/api/inventory", map[string]interface{}{
		"name":     "Campari",
		"quantity": -1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must not be negative")
}

func TestInventorySearchEndpoint(t *testing.T) {
	s := newTestStore(t)
	engine := newInventoryRouter(t, s)
	createTestItem(t, s, "London Dry Gin", "")
	createTestItem(t, s, "Sweet Vermouth", "")

	w := doJSON(t, engine, http.MethodGet, "/api/inventory/search?q=gin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []model.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "London Dry Gin", items[0].Name)
}

func TestInventoryBarcodeEndpoints(t *testing.T) {
	s := newTestStore(t)
	engine := newInventoryRouter(t, s)
	created := createTestItem(t, s, "Campari", "735012345")

	w := doJSON(t, engine, http.MethodGet, "/api/inventory/barcode/735012345", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found model.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Equal(t, created.ID, found.ID)

	w = doJSON(t, engine, http.MethodGet, "/api/inventory/barcode/000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/inventory", map[string]interface{}{
		"name":     "Aperol",
		"quantity": 1,
		"barcode":  "735012345",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Barcode is already in use")
}
