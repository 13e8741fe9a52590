package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/barkeepapp/barkeep/backend/internal/model"
)

// MongoStore is the document store adapter. Each entity family lives in one
// collection keyed by id; single-document operations are atomic and there
// are no cross-document transactions. Concurrent partial updates to the same
// id resolve last-write-wins at field granularity.
type MongoStore struct {
	client     *mongo.Client
	recipes    *mongo.Collection
	items      *mongo.Collection
	disconnect sync.Once
}

// NewMongoStore connects to the deployment at uri. Connection failure here
// is a network error, not a not-found condition, and is wrapped as such.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &MongoStore{
		client:  client,
		recipes: db.Collection("recipes"),
		items:   db.Collection("inventory_items"),
	}, nil
}

// Initialize ensures indexes exist (index creation is additive and
// idempotent in MongoDB) and seeds example records into an empty store.
func (s *MongoStore) Initialize(ctx context.Context) error {
	_, err := s.recipes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create recipe indexes: %w", err)
	}

	_, err = s.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "barcode", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create inventory indexes: %w", err)
	}

	log.Printf("MongoDB collections ready")
	return seedIfEmpty(ctx, s)
}

// Close disconnects the client; safe to call multiple times.
func (s *MongoStore) Close() error {
	var err error
	s.disconnect.Do(func() {
		err = s.client.Disconnect(context.Background())
	})
	return err
}

// listSort is the total list order: newest first, _id breaking
// creation-time ties deterministically.
var listSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *MongoStore) ListRecipes(ctx context.Context) ([]model.Recipe, error) {
	cursor, err := s.recipes.Find(ctx, bson.D{}, options.Find().SetSort(listSort))
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	var recipes []model.Recipe
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	return recipes, nil
}

func (s *MongoStore) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	var rec model.Recipe
	err := s.recipes.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) CreateRecipe(ctx context.Context, in model.RecipeInput) (*model.Recipe, error) {
	rec := newRecipe(in)
	if _, err := s.recipes.InsertOne(ctx, rec); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return &rec, nil
}

// UpdateRecipe merges the supplied fields in a single FindOneAndUpdate, so
// the read-merge-write is one atomic document operation. Only fields present
// in the patch appear in $set; updated_at always refreshes, which makes the
// zero-field patch a valid no-op update.
func (s *MongoStore) UpdateRecipe(ctx context.Context, id string, patch model.RecipePatch) (*model.Recipe, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Ingredients != nil {
		set["ingredients"] = mintIngredients(patch.Ingredients)
	}
	if patch.Instructions != nil {
		set["instructions"] = *patch.Instructions
	}
	if patch.GlassType != nil {
		set["glass_type"] = *patch.GlassType
	}
	if patch.Garnish != nil {
		set["garnish"] = *patch.Garnish
	}
	if patch.Tags != nil {
		set["tags"] = model.StringList(patch.Tags)
	}
	if patch.ImageURL != nil {
		set["image_url"] = *patch.ImageURL
	}

	var rec model.Recipe
	err := s.recipes.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) DeleteRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	var rec model.Recipe
	err := s.recipes.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete recipe: %w", err)
	}
	return &rec, nil
}

// SearchRecipes expresses "contains" as a case-insensitive anchored-nowhere
// regex over the name, plus existential sub-queries over the ingredients and
// tags arrays. Result order matches ListRecipes.
func (s *MongoStore) SearchRecipes(ctx context.Context, query string) ([]model.Recipe, error) {
	pattern := regexp.QuoteMeta(query)
	contains := bson.M{"$regex": pattern, "$options": "i"}
	filter := bson.M{"$or": []bson.M{
		{"name": contains},
		{"ingredients": bson.M{"$elemMatch": bson.M{"name": contains}}},
		{"tags": bson.M{"$elemMatch": contains}},
	}}

	cursor, err := s.recipes.Find(ctx, filter, options.Find().SetSort(listSort))
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	var recipes []model.Recipe
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	return recipes, nil
}

func (s *MongoStore) CountRecipes(ctx context.Context) (int64, error) {
	count, err := s.recipes.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return count, nil
}

func (s *MongoStore) ImportRecipes(ctx context.Context, recipes []model.Recipe) (int, error) {
	inserted := 0
	for i := range recipes {
		rec := recipes[i]
		count, err := s.recipes.CountDocuments(ctx, bson.M{"_id": rec.ID})
		if err != nil {
			return inserted, fmt.Errorf("import recipes: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := s.recipes.InsertOne(ctx, rec); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return inserted, fmt.Errorf("import recipes: %w", err)
		}
		inserted++
	}
	return inserted, nil
}

func (s *MongoStore) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	cursor, err := s.items.Find(ctx, bson.D{}, options.Find().SetSort(listSort))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	var items []model.InventoryItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	return items, nil
}

func (s *MongoStore) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := s.items.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

func (s *MongoStore) CreateItem(ctx context.Context, in model.ItemInput) (*model.InventoryItem, error) {
	item := newItem(in)
	_, err := s.items.InsertOne(ctx, item)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicateBarcode
	}
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

func (s *MongoStore) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.InventoryItem, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	if patch.Unit != nil {
		set["unit"] = *patch.Unit
	}
	if patch.Barcode != nil {
		set["barcode"] = *patch.Barcode
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}

	var item model.InventoryItem
	err := s.items.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicateBarcode
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &item, nil
}

func (s *MongoStore) DeleteItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := s.items.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return &item, nil
}

func (s *MongoStore) SearchItems(ctx context.Context, query string) ([]model.InventoryItem, error) {
	pattern := regexp.QuoteMeta(query)
	contains := bson.M{"$regex": pattern, "$options": "i"}
	filter := bson.M{"$or": []bson.M{
		{"name": contains},
		{"category": contains},
		{"notes": contains},
	}}

	cursor, err := s.items.Find(ctx, filter, options.Find().SetSort(listSort))
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	var items []model.InventoryItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	return items, nil
}

func (s *MongoStore) CountItems(ctx context.Context) (int64, error) {
	count, err := s.items.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

func (s *MongoStore) FindItemByBarcode(ctx context.Context, code string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := s.items.FindOne(ctx, bson.M{"barcode": code}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find item by barcode: %w", err)
	}
	return &item, nil
}
