package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/barkeepapp/barkeep/backend/internal/model"
	"github.com/barkeepapp/barkeep/backend/internal/store"
	"github.com/barkeepapp/barkeep/backend/internal/validate"
)

// InventoryHandler serves the inventory REST surface over the shared store.
type InventoryHandler struct {
	store store.Store
}

func NewInventoryHandler(s store.Store) *InventoryHandler {
	return &InventoryHandler{store: s}
}

// RegisterRoutes registers the inventory routes. authorized guards mutations.
func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup, authorized gin.HandlerFunc) {
	inventory := router.Group("/inventory")
	{
		inventory.GET("", h.ListItems)
		inventory.GET("/search", h.SearchItems)
		inventory.GET("/barcode/:code", h.FindByBarcode)
		inventory.GET("/:id", h.GetItem)
		inventory.POST("", authorized, h.CreateItem)
		inventory.PUT("/:id", authorized, h.UpdateItem)
		inventory.DELETE("/:id", authorized, h.DeleteItem)
	}
}

func (h *InventoryHandler) ListItems(c *gin.Context) {
	items, err := h.store.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryHandler) SearchItems(c *gin.Context) {
	items, err := h.store.SearchItems(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search inventory"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryHandler) FindByBarcode(c *gin.Context) {
	item, err := h.store.FindItemByBarcode(c.Request.Context(), c.Param("code"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.store.GetItem(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var in model.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if verr := validate.Item(&in); verr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	item, err := h.store.CreateItem(c.Request.Context(), in)
	if errors.Is(err, store.ErrDuplicateBarcode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Barcode is already in use"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	var patch model.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if verr := validate.ItemPatch(&patch); verr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	item, err := h.store.UpdateItem(c.Request.Context(), c.Param("id"), patch)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if errors.Is(err, store.ErrDuplicateBarcode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Barcode is already in use"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	item, err := h.store.DeleteItem(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}
	c.JSON(http.StatusOK, item)
}
