package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkeepapp/barkeep/backend/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return NewRegistry(s), s
}

func TestRegistryExposesTools(t *testing.T) {
	r, _ := newTestRegistry(t)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "create_recipe", all[0].Name)
	assert.Equal(t, "edit_recipe", all[1].Name)

	_, ok := r.Get("create_recipe")
	assert.True(t, ok)
	_, ok = r.Get("delete_recipe")
	assert.False(t, ok)
}

func TestExecuteUnknownTool(t *testing.T) {
	r, _ := newTestRegistry(t)

	res := r.Execute(context.Background(), "delete_recipe", json.RawMessage(`{}`))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown tool")
	assert.NotEmpty(t, res.Message)
}

func TestCreateRecipeTool(t *testing.T) {
	r, s := newTestRegistry(t)
	ctx := context.Background()

	args := json.RawMessage(`{
		"name": "Test Margarita",
		"description": "A test margarita",
		"ingredients": [
			{"name": "Tequila", "amount": 2, "unit": "oz"},
			{"name": "Lime Juice", "amount": 1, "unit": "oz"}
		],
		"instructions": "Shake with ice and strain.",
		"glass_type": "coupe",
		"garnish": "Lime wheel",
		"tags": ["test"]
	}`)

	res := r.Execute(ctx, "create_recipe", args)
	require.True(t, res.Success, "unexpected failure: %s", res.Error)
	require.NotNil(t, res.Recipe)
	assert.Equal(t, "Successfully created recipe Test Margarita", res.Message)
	assert.NotEmpty(t, res.Recipe.ID)

	stored, err := s.GetRecipe(ctx, res.Recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Margarita", stored.Name)
	require.Len(t, stored.Ingredients, 2)
	assert.NotEmpty(t, stored.Ingredients[0].ID)
}

func TestCreateRecipeToolValidation(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args string
		want string
	}{
		{
			name: "missing name",
			args: `{"ingredients": [{"name": "Gin", "amount": 2, "unit": "oz"}], "instructions": "Stir."}`,
			want: "Recipe name is required",
		},
		{
			name: "no ingredients",
			args: `{"name": "Empty", "ingredients": [], "instructions": "Stir."}`,
			want: "At least one ingredient is required",
		},
		{
			name: "non-positive amount",
			args: `{"name": "Bad", "ingredients": [{"name": "Gin", "amount": 0, "unit": "oz"}], "instructions": "Stir."}`,
			want: "Ingredient amount must be positive",
		},
		{
			name: "missing instructions",
			args: `{"name": "Bad", "ingredients": [{"name": "Gin", "amount": 2, "unit": "oz"}]}`,
			want: "Instructions are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Execute(ctx, "create_recipe", json.RawMessage(tt.args))
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error)
			assert.Equal(t, "Failed to create recipe: "+tt.want, res.Message)
			assert.Nil(t, res.Recipe)
		})
	}
}

func TestCreateRecipeToolMalformedJSON(t *testing.T) {
	r, _ := newTestRegistry(t)

	res := r.Execute(context.Background(), "create_recipe", json.RawMessage(`{"name": `))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid arguments")
}

func TestEditRecipeTool(t *testing.T) {
	r, s := newTestRegistry(t)
	ctx := context.Background()

	created := r.Execute(ctx, "create_recipe", json.RawMessage(`{
		"name": "Gin and Tonic",
		"ingredients": [
			{"name": "Gin", "amount": 2, "unit": "oz"},
			{"name": "Tonic Water", "amount": 4, "unit": "oz"}
		],
		"instructions": "Build over ice."
	}`))
	require.True(t, created.Success)
	id := created.Recipe.ID

	t.Run("replaces ingredient list", func(t *testing.T) {
		args := fmt.Sprintf(`{
			"id": %q,
			"ingredients": [
				{"name": "Vodka", "amount": 2, "unit": "oz"},
				{"name": "Tonic Water", "amount": 4, "unit": "oz"}
			]
		}`, id)
		res := r.Execute(ctx, "edit_recipe", json.RawMessage(args))
		require.True(t, res.Success, "unexpected failure: %s", res.Error)
		assert.Equal(t, "Successfully updated recipe Gin and Tonic", res.Message)

		stored, err := s.GetRecipe(ctx, id)
		require.NoError(t, err)
		require.Len(t, stored.Ingredients, 2)
		assert.Equal(t, "Vodka", stored.Ingredients[0].Name)
		assert.Equal(t, "Gin and Tonic", stored.Name, "untouched fields survive")
	})

	t.Run("no-op edit succeeds", func(t *testing.T) {
		res := r.Execute(ctx, "edit_recipe", json.RawMessage(fmt.Sprintf(`{"id": %q}`, id)))
		assert.True(t, res.Success)
		assert.Equal(t, "Successfully updated recipe Gin and Tonic", res.Message)
	})

	t.Run("missing id", func(t *testing.T) {
		res := r.Execute(ctx, "edit_recipe", json.RawMessage(`{"name": "Renamed"}`))
		assert.False(t, res.Success)
		assert.Equal(t, "Recipe ID is required", res.Error)
	})

	t.Run("unknown id", func(t *testing.T) {
		res := r.Execute(ctx, "edit_recipe", json.RawMessage(`{"id": "no-such-id", "name": "Renamed"}`))
		assert.False(t, res.Success)
		assert.Equal(t, "Recipe with ID no-such-id not found", res.Error)
		assert.Equal(t, "Cannot edit recipe: Recipe not found", res.Message)
	})

	t.Run("invalid patch", func(t *testing.T) {
		args := fmt.Sprintf(`{"id": %q, "ingredients": [{"name": "Gin", "amount": -1, "unit": "oz"}]}`, id)
		res := r.Execute(ctx, "edit_recipe", json.RawMessage(args))
		assert.False(t, res.Success)
		assert.Equal(t, "Ingredient amount must be positive", res.Error)
	})
}
