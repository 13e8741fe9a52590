package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/barkeepapp/barkeep/backend/internal/model"
)

// SQLiteStore is the embedded relational adapter. Each entity is one row;
// ingredient and tag lists are serialized JSON text columns. The engine
// serializes writes, and read-merge-write updates run inside a transaction
// so concurrent updates to the same id cannot silently drop merged fields.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Initialize runs additive migration and seeds example records into an empty
// store. AutoMigrate only adds missing columns and indexes; existing rows
// keep their data with the new columns defaulted to null.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Recipe{}, &model.InventoryItem{}); err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	log.Printf("SQLite schema ready")
	return seedIfEmpty(ctx, s)
}

// Close releases the underlying connection; safe to call multiple times.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

// recipeOrder is the total list order: newest first, rowid breaking
// creation-time ties by insertion order.
const recipeOrder = "created_at DESC, rowid DESC"

func (s *SQLiteStore) ListRecipes(ctx context.Context) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := s.db.WithContext(ctx).Order(recipeOrder).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

func (s *SQLiteStore) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	var recipe model.Recipe
	err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &recipe, nil
}

func (s *SQLiteStore) CreateRecipe(ctx context.Context, in model.RecipeInput) (*model.Recipe, error) {
	rec := newRecipe(in)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) UpdateRecipe(ctx context.Context, id string, patch model.RecipePatch) (*model.Recipe, error) {
	var rec model.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		applyRecipePatch(&rec, patch)
		return tx.Save(&rec).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) DeleteRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	var rec model.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Recipe{}, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete recipe: %w", err)
	}
	return &rec, nil
}

// SearchRecipes matches a case-insensitive substring against the recipe
// name, ingredient names, and tags. The serialized list columns are walked
// with json_each so units and ids never produce spurious matches.
func (s *SQLiteStore) SearchRecipes(ctx context.Context, query string) ([]model.Recipe, error) {
	like := "%" + strings.ToLower(query) + "%"
	var recipes []model.Recipe
	err := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ?
			OR EXISTS (SELECT 1 FROM json_each(recipes.ingredients) WHERE LOWER(json_extract(json_each.value, '$.name')) LIKE ?)
			OR EXISTS (SELECT 1 FROM json_each(recipes.tags) WHERE LOWER(json_each.value) LIKE ?)`,
			like, like, like).
		Order(recipeOrder).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	return recipes, nil
}

func (s *SQLiteStore) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) ImportRecipes(ctx context.Context, recipes []model.Recipe) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range recipes {
			rec := recipes[i]
			var count int64
			if err := tx.Model(&model.Recipe{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import recipes: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	if err := s.db.WithContext(ctx).Order(recipeOrder).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

func (s *SQLiteStore) CreateItem(ctx context.Context, in model.ItemInput) (*model.InventoryItem, error) {
	item := newItem(in)
	if item.Barcode != nil {
		if err := s.checkBarcodeFree(ctx, *item.Barcode, ""); err != nil {
			return nil, err
		}
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

func (s *SQLiteStore) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.InventoryItem, error) {
	if patch.Barcode != nil {
		if err := s.checkBarcodeFree(ctx, *patch.Barcode, id); err != nil {
			return nil, err
		}
	}
	var item model.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		applyItemPatch(&item, patch)
		return tx.Save(&item).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &item, nil
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.InventoryItem{}, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return &item, nil
}

func (s *SQLiteStore) SearchItems(ctx context.Context, query string) ([]model.InventoryItem, error) {
	like := "%" + strings.ToLower(query) + "%"
	var items []model.InventoryItem
	err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ? OR LOWER(notes) LIKE ?", like, like, like).
		Order(recipeOrder).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) CountItems(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.InventoryItem{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) FindItemByBarcode(ctx context.Context, code string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := s.db.WithContext(ctx).First(&item, "barcode = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find item by barcode: %w", err)
	}
	return &item, nil
}

// checkBarcodeFree rejects a barcode already held by a different item.
func (s *SQLiteStore) checkBarcodeFree(ctx context.Context, code, excludeID string) error {
	var count int64
	q := s.db.WithContext(ctx).Model(&model.InventoryItem{}).Where("barcode = ?", code)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check barcode: %w", err)
	}
	if count > 0 {
		return ErrDuplicateBarcode
	}
	return nil
}
