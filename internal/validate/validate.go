// Package validate checks mutation payloads against field-level rules before
// they reach storage. It is the single validator behind both the HTTP
// handlers and the assistant tools, and it performs no I/O.
package validate

import (
	"strings"

	"github.com/barkeepapp/barkeep/backend/internal/model"
)

// Error codes.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
)

// Error is a typed rejection of a mutation payload.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalid(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg}
}

// Recipe validates and normalizes a create payload in place: names and text
// fields are trimmed, and tags default to an empty list, never nil.
func Recipe(in *model.RecipeInput) *Error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("Recipe name is required")
	}
	if len(in.Ingredients) == 0 {
		return invalid("At least one ingredient is required")
	}
	if err := ingredients(in.Ingredients); err != nil {
		return err
	}
	in.Instructions = strings.TrimSpace(in.Instructions)
	if in.Instructions == "" {
		return invalid("Instructions are required")
	}
	in.Description = strings.TrimSpace(in.Description)
	in.GlassType = strings.TrimSpace(in.GlassType)
	in.Garnish = strings.TrimSpace(in.Garnish)
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return nil
}

// RecipePatch validates only the fields actually supplied; absent fields are
// not checked. A patch with zero fields is valid: it is a no-op update.
func RecipePatch(p *model.RecipePatch) *Error {
	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
		if *p.Name == "" {
			return invalid("Recipe name is required")
		}
	}
	if p.Ingredients != nil {
		if len(p.Ingredients) == 0 {
			return invalid("At least one ingredient is required")
		}
		if err := ingredients(p.Ingredients); err != nil {
			return err
		}
	}
	if p.Instructions != nil {
		*p.Instructions = strings.TrimSpace(*p.Instructions)
		if *p.Instructions == "" {
			return invalid("Instructions are required")
		}
	}
	return nil
}

func ingredients(list []model.Ingredient) *Error {
	for i := range list {
		list[i].Name = strings.TrimSpace(list[i].Name)
		if list[i].Name == "" {
			return invalid("Ingredient name is required")
		}
		if list[i].Amount <= 0 {
			return invalid("Ingredient amount must be positive")
		}
		list[i].Unit = strings.TrimSpace(list[i].Unit)
		if list[i].Unit == "" {
			return invalid("Ingredient unit is required")
		}
	}
	return nil
}

// Item validates and normalizes an inventory create payload.
func Item(in *model.ItemInput) *Error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("Item name is required")
	}
	if in.Quantity < 0 {
		return invalid("Item quantity must not be negative")
	}
	if in.Barcode != nil {
		trimmed := strings.TrimSpace(*in.Barcode)
		if trimmed == "" {
			in.Barcode = nil
		} else {
			in.Barcode = &trimmed
		}
	}
	return nil
}

// ItemPatch validates only the supplied fields of an inventory update.
func ItemPatch(p *model.ItemPatch) *Error {
	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
		if *p.Name == "" {
			return invalid("Item name is required")
		}
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return invalid("Item quantity must not be negative")
	}
	return nil
}
