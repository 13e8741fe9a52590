// Package store provides the persistence layer behind the recipe and
// inventory APIs. Two adapters implement the same contract: an embedded
// SQLite store and a MongoDB document store. Callers hold a single Store
// handle for the life of the process; which adapter backs it is a
// configuration concern.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/barkeepapp/barkeep/backend/config"
	"github.com/barkeepapp/barkeep/backend/internal/model"
)

// ErrNotFound is returned when a referenced id does not exist. Adapters
// never treat "not found" as a panic or a backend failure.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateBarcode is returned when an inventory barcode is already taken.
var ErrDuplicateBarcode = errors.New("barcode already in use")

// Store is the backend-agnostic persistence contract. Both adapters must
// preserve identical semantics: newest-first ordering with a deterministic
// tiebreak, server-assigned ids and timestamps, shallow partial-update
// merges, and case-insensitive substring search over names, ingredient
// names, and tags.
type Store interface {
	// Initialize connects, performs additive schema migration, and seeds a
	// fixed set of example records only when the store is empty. It is
	// idempotent.
	Initialize(ctx context.Context) error
	// Close releases underlying resources; safe to call more than once.
	Close() error

	ListRecipes(ctx context.Context) ([]model.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	CreateRecipe(ctx context.Context, in model.RecipeInput) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, patch model.RecipePatch) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) (*model.Recipe, error)
	SearchRecipes(ctx context.Context, query string) ([]model.Recipe, error)
	CountRecipes(ctx context.Context) (int64, error)
	// ImportRecipes bulk-inserts records keeping their ids, skipping any id
	// that already exists. It returns the number actually inserted.
	ImportRecipes(ctx context.Context, recipes []model.Recipe) (int, error)

	ListItems(ctx context.Context) ([]model.InventoryItem, error)
	GetItem(ctx context.Context, id string) (*model.InventoryItem, error)
	CreateItem(ctx context.Context, in model.ItemInput) (*model.InventoryItem, error)
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.InventoryItem, error)
	DeleteItem(ctx context.Context, id string) (*model.InventoryItem, error)
	SearchItems(ctx context.Context, query string) ([]model.InventoryItem, error)
	CountItems(ctx context.Context) (int64, error)
	FindItemByBarcode(ctx context.Context, code string) (*model.InventoryItem, error)
}

// Open constructs the store selected by configuration. The returned handle
// has not been initialized yet; callers run Initialize before serving.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.BackendMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// mintIngredients assigns fresh display ids. Replacing an ingredient list
// discards the old identities; there is no ingredient-level editing.
func mintIngredients(list []model.Ingredient) model.IngredientList {
	out := make(model.IngredientList, len(list))
	for i, ing := range list {
		ing.ID = uuid.NewString()
		out[i] = ing
	}
	return out
}

// newRecipe builds a full record from a validated create payload. The id and
// both timestamps are assigned here, never taken from the caller.
func newRecipe(in model.RecipeInput) model.Recipe {
	now := time.Now().UTC()
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Recipe{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Name:         in.Name,
		Description:  in.Description,
		Ingredients:  mintIngredients(in.Ingredients),
		Instructions: in.Instructions,
		GlassType:    in.GlassType,
		Garnish:      in.Garnish,
		Tags:         model.StringList(tags),
	}
}

// applyRecipePatch merges supplied fields over an existing record and
// recomputes updated_at. Supplying ingredients or tags replaces the whole
// list; everything else is field-by-field.
func applyRecipePatch(rec *model.Recipe, patch model.RecipePatch) {
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.Ingredients != nil {
		rec.Ingredients = mintIngredients(patch.Ingredients)
	}
	if patch.Instructions != nil {
		rec.Instructions = *patch.Instructions
	}
	if patch.GlassType != nil {
		rec.GlassType = *patch.GlassType
	}
	if patch.Garnish != nil {
		rec.Garnish = *patch.Garnish
	}
	if patch.Tags != nil {
		rec.Tags = model.StringList(patch.Tags)
	}
	if patch.ImageURL != nil {
		rec.ImageURL = *patch.ImageURL
	}
	rec.UpdatedAt = time.Now().UTC()
}

// newItem builds a full inventory record from a validated create payload.
func newItem(in model.ItemInput) model.InventoryItem {
	now := time.Now().UTC()
	return model.InventoryItem{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      in.Name,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		Barcode:   in.Barcode,
		Category:  in.Category,
		Notes:     in.Notes,
	}
}

// applyItemPatch merges supplied fields over an existing inventory record.
func applyItemPatch(item *model.InventoryItem, patch model.ItemPatch) {
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.Barcode != nil {
		item.Barcode = patch.Barcode
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Notes != nil {
		item.Notes = *patch.Notes
	}
	item.UpdatedAt = time.Now().UTC()
}
