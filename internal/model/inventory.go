package model

import "time"

// InventoryItem is one stocked bottle or supply. Barcode is optional but
// unique when present, so it is nullable rather than a plain string.
type InventoryItem struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	Name      string    `gorm:"size:255;not null" json:"name" bson:"name"`
	Quantity  float64   `json:"quantity" bson:"quantity"`
	Unit      string    `gorm:"size:50" json:"unit" bson:"unit"`
	Barcode   *string   `gorm:"size:64;uniqueIndex" json:"barcode,omitempty" bson:"barcode,omitempty"`
	Category  string    `gorm:"size:100" json:"category" bson:"category"`
	Notes     string    `gorm:"type:text" json:"notes" bson:"notes"`
}

// ItemInput carries the caller-supplied fields of an inventory create request.
type ItemInput struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Barcode  *string `json:"barcode"`
	Category string  `json:"category"`
	Notes    string  `json:"notes"`
}

// ItemPatch carries a partial inventory update. Nil fields are left untouched.
type ItemPatch struct {
	Name     *string  `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Barcode  *string  `json:"barcode"`
	Category *string  `json:"category"`
	Notes    *string  `json:"notes"`
}
