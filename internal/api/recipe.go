package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/barkeepapp/barkeep/backend/internal/model"
	"github.com/barkeepapp/barkeep/backend/internal/store"
	"github.com/barkeepapp/barkeep/backend/internal/validate"
)

// ImageStorage uploads a recipe image and returns its public URL.
type ImageStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// RecipeHandler serves the recipe REST surface over the shared store.
type RecipeHandler struct {
	store  store.Store
	images ImageStorage
}

// NewRecipeHandler creates a new RecipeHandler. images may be nil, which
// disables the upload endpoint.
func NewRecipeHandler(s store.Store, images ImageStorage) *RecipeHandler {
	return &RecipeHandler{store: s, images: images}
}

// RegisterRoutes registers the recipe routes. authorized guards mutations.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, authorized gin.HandlerFunc) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", authorized, h.CreateRecipe)
		recipes.PUT("/:id", authorized, h.UpdateRecipe)
		recipes.DELETE("/:id", authorized, h.DeleteRecipe)
		recipes.POST("/import", authorized, h.ImportRecipes)
		recipes.POST("/:id/image", authorized, h.UploadImage)
	}
}

// ListRecipes returns all recipes newest first, or the search results when
// a q parameter is present.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var (
		recipes []model.Recipe
		err     error
	)
	if q := c.Query("q"); q != "" {
		recipes, err = h.store.SearchRecipes(c.Request.Context(), q)
	} else {
		recipes, err = h.store.ListRecipes(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipe, err := h.store.GetRecipe(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipe"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var in model.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if verr := validate.Recipe(&in); verr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	recipe, err := h.store.CreateRecipe(c.Request.Context(), in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	var patch model.RecipePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if verr := validate.RecipePatch(&patch); verr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	recipe, err := h.store.UpdateRecipe(c.Request.Context(), c.Param("id"), patch)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update recipe"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	recipe, err := h.store.DeleteRecipe(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recipe"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// ImportRecipes bulk-inserts full records, silently skipping ids that
// already exist.
func (h *RecipeHandler) ImportRecipes(c *gin.Context) {
	var recipes []model.Recipe
	if err := c.ShouldBindJSON(&recipes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inserted, err := h.store.ImportRecipes(c.Request.Context(), recipes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import recipes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": inserted, "received": len(recipes)})
}

// UploadImage stores a multipart image for the recipe and persists its URL.
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is not configured"})
		return
	}

	id := c.Param("id")
	if _, err := h.store.GetRecipe(c.Request.Context(), id); errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipe"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image file"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("recipes/%s/%s%s", id, uuid.NewString(), filepath.Ext(fileHeader.Filename))
	url, err := h.images.Upload(c.Request.Context(), key, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	recipe, err := h.store.UpdateRecipe(c.Request.Context(), id, model.RecipePatch{ImageURL: &url})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update recipe"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}
