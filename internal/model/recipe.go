package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringList is a custom type for handling string arrays stored as JSON text
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Ingredient is one entry in a recipe's ingredient list. IDs are
// display-scoped only: replacing the list mints fresh ones.
type Ingredient struct {
	ID     string  `json:"id" bson:"id"`
	Name   string  `json:"name" bson:"name"`
	Amount float64 `json:"amount" bson:"amount"`
	Unit   string  `json:"unit" bson:"unit"`
}

// IngredientList is a custom type for handling ingredient arrays stored as JSON text
type IngredientList []Ingredient

// Value implements the driver.Valuer interface
func (l IngredientList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *IngredientList) Scan(value interface{}) error {
	if value == nil {
		*l = IngredientList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, l)
}

type Recipe struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
	Name         string         `gorm:"size:255;not null" json:"name" bson:"name"`
	Description  string         `gorm:"type:text" json:"description" bson:"description"`
	Ingredients  IngredientList `gorm:"type:text;not null;default:'[]'" json:"ingredients" bson:"ingredients"`
	Instructions string         `gorm:"type:text;not null" json:"instructions" bson:"instructions"`
	GlassType    string         `gorm:"size:50" json:"glass_type" bson:"glass_type"`
	Garnish      string         `gorm:"size:255" json:"garnish" bson:"garnish"`
	Tags         StringList     `gorm:"type:text;not null;default:'[]'" json:"tags" bson:"tags"`
	ImageURL     string         `gorm:"size:255" json:"image_url" bson:"image_url"`
}

// RecipeInput carries the caller-supplied fields of a create request. The id
// and both timestamps are assigned by the storage layer.
type RecipeInput struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions string       `json:"instructions"`
	GlassType    string       `json:"glass_type"`
	Garnish      string       `json:"garnish"`
	Tags         []string     `json:"tags"`
}

// RecipePatch carries a partial update. Nil fields are left untouched;
// a non-nil Ingredients or Tags slice replaces the whole list.
type RecipePatch struct {
	Name         *string      `json:"name"`
	Description  *string      `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions *string      `json:"instructions"`
	GlassType    *string      `json:"glass_type"`
	Garnish      *string      `json:"garnish"`
	Tags         []string     `json:"tags"`
	ImageURL     *string      `json:"image_url"`
}

// Empty reports whether the patch supplies no fields at all. An empty patch
// is still a valid update: the record passes through the merge path and its
// updated_at refreshes.
func (p RecipePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Ingredients == nil &&
		p.Instructions == nil && p.GlassType == nil && p.Garnish == nil &&
		p.Tags == nil && p.ImageURL == nil
}
