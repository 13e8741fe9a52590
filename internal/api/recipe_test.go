package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkeepapp/barkeep/backend/internal/model"
	"github.com/barkeepapp/barkeep/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// passThrough stands in for the auth middleware in handler tests.
func passThrough(c *gin.Context) {
	c.Next()
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newRecipeRouter(t *testing.T, s store.Store, images ImageStorage) *gin.Engine {
	t.Helper()
	engine := gin.New()
	NewRecipeHandler(s, images).RegisterRoutes(engine.Group("/api"), passThrough)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func createTestRecipe(t *testing.T, s store.Store, name string) *model.Recipe {
	t.Helper()
	recipe, err := s.CreateRecipe(context.Background(), model.RecipeInput{
		Name: name,
		Ingredients: []model.Ingredient{
			{Name: "Gin", Amount: 2, Unit: "oz"},
		},
		Instructions: "Stir with ice.",
		Tags:         []string{"test"},
	})
	require.NoError(t, err)
	return recipe
}

func TestListRecipes(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)

	w := doJSON(t, engine, http.MethodGet, "/api/recipes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var recipes []model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipes))
	assert.Len(t, recipes, 3, "seed set")
}

func TestListRecipesSearch(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)

	w := doJSON(t, engine, http.MethodGet, "/api/recipes?q=negroni", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var recipes []model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipes))
	require.Len(t, recipes, 1)
	assert.Equal(t, "Negroni", recipes[0].Name)
}

func TestGetRecipe(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)
	created := createTestRecipe(t, s, "Test Recipe")

	w := doJSON(t, engine, http.MethodGet, "/api/recipes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)

	w = doJSON(t, engine, http.MethodGet, "/api/recipes/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Recipe not found")
}

func TestCreateRecipeEndpoint(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)

	body := map[string]interface{}{
		"name": "Paper Plane",
		"ingredients": []map[string]interface{}{
			{"name": "Bourbon", "amount": 0.75, "unit": "oz"},
			{"name": "Aperol", "amount": 0.75, "unit": "oz"},
		},
		"instructions": "Shake and strain.",
	}
	w := doJSON(t, engine, http.MethodPost, "/api/recipes", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Paper Plane", created.Name)
}

func TestCreateRecipeEndpointRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)

	w := doJSON(t, engine, http.MethodPost, "/api/recipes", map[string]interface{}{
		"name":         "",
		"ingredients":  []map[string]interface{}{{"name": "Gin", "amount": 2, "unit": "oz"}},
		"instructions": "Stir.",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Recipe name is required")
}

func TestUpdateRecipeEndpoint(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)
	created := createTestRecipe(t, s, "Before")

	w := doJSON(t, engine, http.MethodPut, "/api/recipes/"+created.ID, map[string]interface{}{
		"name": "After",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated model.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, created.Instructions, updated.Instructions)

	w = doJSON(t, engine, http.MethodPut, "/api/recipes/no-such-id", map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRecipeEndpoint(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)
	created := createTestRecipe(t, s, "Doomed")

	w := doJSON(t, engine, http.MethodDelete, "/api/recipes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodDelete, "/api/recipes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportRecipesEndpoint(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)
	existing := createTestRecipe(t, s, "Already Here")

	batch := []model.Recipe{
		*existing,
		{
			ID:   "22222222-2222-2222-2222-222222222222",
			Name: "Imported Sour",
			Ingredients: model.IngredientList{
				{ID: "i1", Name: "Pisco", Amount: 2, Unit: "oz"},
			},
			Instructions: "Dry shake, then shake with ice.",
		},
	}
	w := doJSON(t, engine, http.MethodPost, "/api/recipes/import", batch)
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result["imported"])
	assert.Equal(t, 2, result["received"])
}

type fakeImages struct {
	lastKey string
}

func (f *fakeImages) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	f.lastKey = key
	return "https://images.test/" + key, nil
}

func TestUploadImage(t *testing.T) {
	s := newTestStore(t)
	images := &fakeImages{}
	engine := newRecipeRouter(t, s, images)
	created := createTestRecipe(t, s, "Photogenic")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "drink.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/"+created.ID+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, images.lastKey, created.ID)

	stored, err := s.GetRecipe(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://images.test/"+images.lastKey, stored.ImageURL)
}

func TestUploadImageUnavailableWithoutStorage(t *testing.T) {
	s := newTestStore(t)
	engine := newRecipeRouter(t, s, nil)
	created := createTestRecipe(t, s, "No Image")

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/"+created.ID+"/image", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
