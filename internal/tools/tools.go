// Package tools wraps recipe mutations as named, schema-described tools the
// assistant can invoke. Every tool composes the validator with the storage
// adapter and returns a structured Result instead of failing loudly, so the
// orchestrator can always fold the outcome into a reply.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/barkeepapp/barkeep/backend/internal/model"
	"github.com/barkeepapp/barkeep/backend/internal/store"
	"github.com/barkeepapp/barkeep/backend/internal/validate"
)

// Result is the uniform success/failure envelope crossing the tool boundary.
type Result struct {
	Success bool          `json:"success"`
	Recipe  *model.Recipe `json:"recipe,omitempty"`
	Error   string        `json:"error,omitempty"`
	Message string        `json:"message"`
}

// Tool is one named mutation operation. Schema is a JSON-schema object
// describing the input, shared between HTTP validation docs and the
// assistant's tool-calling declarations.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]interface{}
	Run         func(ctx context.Context, args json.RawMessage) Result
}

// Registry holds the tools exposed to the assistant.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry exposing create_recipe and edit_recipe over
// the given store.
func NewRegistry(s store.Store) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.register(createRecipeTool(s))
	r.register(editRecipeTool(s))
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns the registered tools in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Execute runs the named tool, returning a failure envelope for unknown
// names rather than an error.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) Result {
	t, ok := r.tools[name]
	if !ok {
		return Result{
			Success: false,
			Error:   fmt.Sprintf("unknown tool %q", name),
			Message: fmt.Sprintf("Failed to run tool: unknown tool %q", name),
		}
	}
	return t.Run(ctx, args)
}

func ingredientSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":   map[string]interface{}{"type": "string"},
				"amount": map[string]interface{}{"type": "number"},
				"unit":   map[string]interface{}{"type": "string"},
			},
			"required": []string{"name", "amount", "unit"},
		},
	}
}

func createRecipeTool(s store.Store) Tool {
	return Tool{
		Name:        "create_recipe",
		Description: "Create a new cocktail recipe with a name, ingredients, and instructions.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":         map[string]interface{}{"type": "string", "description": "Recipe name"},
				"description":  map[string]interface{}{"type": "string"},
				"ingredients":  ingredientSchema(),
				"instructions": map[string]interface{}{"type": "string"},
				"glass_type":   map[string]interface{}{"type": "string", "description": "Glass to serve in, e.g. coupe, rocks, highball"},
				"garnish":      map[string]interface{}{"type": "string"},
				"tags":         map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
			"required": []string{"name", "ingredients", "instructions"},
		},
		Run: func(ctx context.Context, args json.RawMessage) Result {
			var in model.RecipeInput
			if err := json.Unmarshal(args, &in); err != nil {
				return createFailure("invalid arguments: " + err.Error())
			}
			if verr := validate.Recipe(&in); verr != nil {
				return createFailure(verr.Message)
			}
			rec, err := s.CreateRecipe(ctx, in)
			if err != nil {
				return createFailure("storage error: " + err.Error())
			}
			return Result{
				Success: true,
				Recipe:  rec,
				Message: fmt.Sprintf("Successfully created recipe %s", rec.Name),
			}
		},
	}
}

func createFailure(reason string) Result {
	return Result{
		Success: false,
		Error:   reason,
		Message: "Failed to create recipe: " + reason,
	}
}

func editRecipeTool(s store.Store) Tool {
	return Tool{
		Name:        "edit_recipe",
		Description: "Edit an existing recipe by id. Only supplied fields change; supplying ingredients replaces the whole list.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id":           map[string]interface{}{"type": "string", "description": "ID of the recipe to edit"},
				"name":         map[string]interface{}{"type": "string"},
				"description":  map[string]interface{}{"type": "string"},
				"ingredients":  ingredientSchema(),
				"instructions": map[string]interface{}{"type": "string"},
				"glass_type":   map[string]interface{}{"type": "string"},
				"garnish":      map[string]interface{}{"type": "string"},
				"tags":         map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
			"required": []string{"id"},
		},
		Run: func(ctx context.Context, args json.RawMessage) Result {
			var in struct {
				ID string `json:"id"`
				model.RecipePatch
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return editFailure("invalid arguments: " + err.Error())
			}
			if in.ID == "" {
				return editFailure("Recipe ID is required")
			}
			if verr := validate.RecipePatch(&in.RecipePatch); verr != nil {
				return editFailure(verr.Message)
			}
			rec, err := s.UpdateRecipe(ctx, in.ID, in.RecipePatch)
			if errors.Is(err, store.ErrNotFound) {
				return Result{
					Success: false,
					Error:   fmt.Sprintf("Recipe with ID %s not found", in.ID),
					Message: "Cannot edit recipe: Recipe not found",
				}
			}
			if err != nil {
				return editFailure("storage error: " + err.Error())
			}
			return Result{
				Success: true,
				Recipe:  rec,
				Message: fmt.Sprintf("Successfully updated recipe %s", rec.Name),
			}
		},
	}
}

func editFailure(reason string) Result {
	return Result{
		Success: false,
		Error:   reason,
		Message: "Failed to update recipe: " + reason,
	}
}
