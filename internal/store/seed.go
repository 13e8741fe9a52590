package store

import (
	"context"
	"fmt"
	"log"

	"github.com/barkeepapp/barkeep/backend/internal/model"
)

// seedRecipes is the fixed set of example records loaded into an empty store.
func seedRecipes() []model.RecipeInput {
	return []model.RecipeInput{
		{
			Name:        "Old Fashioned",
			Description: "The original cocktail: spirit, sugar, bitters.",
			Ingredients: []model.Ingredient{
				{Name: "Bourbon", Amount: 2, Unit: "oz"},
				{Name: "Simple Syrup", Amount: 0.25, Unit: "oz"},
				{Name: "Angostura Bitters", Amount: 2, Unit: "dash"},
			},
			Instructions: "Stir with ice until well chilled, strain over a large cube.",
			GlassType:    "rocks",
			Garnish:      "Orange peel",
			Tags:         []string{"classic", "whiskey", "stirred"},
		},
		{
			Name:        "Margarita",
			Description: "Bright, sour, and salty.",
			Ingredients: []model.Ingredient{
				{Name: "Tequila", Amount: 2, Unit: "oz"},
				{Name: "Lime Juice", Amount: 1, Unit: "oz"},
				{Name: "Triple Sec", Amount: 0.75, Unit: "oz"},
			},
			Instructions: "Shake hard with ice, strain into a salt-rimmed glass.",
			GlassType:    "coupe",
			Garnish:      "Lime wheel",
			Tags:         []string{"classic", "tequila", "shaken", "sour"},
		},
		{
			Name:        "Negroni",
			Description: "Equal parts, bitter and bracing.",
			Ingredients: []model.Ingredient{
				{Name: "Gin", Amount: 1, Unit: "oz"},
				{Name: "Campari", Amount: 1, Unit: "oz"},
				{Name: "Sweet Vermouth", Amount: 1, Unit: "oz"},
			},
			Instructions: "Stir with ice, strain over fresh ice.",
			GlassType:    "rocks",
			Garnish:      "Orange slice",
			Tags:         []string{"classic", "gin", "bitter"},
		},
	}
}

// Seed loads the example records into an empty store and reports how many
// were created. A populated store is left untouched.
func Seed(ctx context.Context, s Store) (int, error) {
	count, err := s.CountRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed count: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	recipes := seedRecipes()
	for _, in := range recipes {
		if _, err := s.CreateRecipe(ctx, in); err != nil {
			return 0, fmt.Errorf("seed recipe %q: %w", in.Name, err)
		}
	}
	return len(recipes), nil
}

// seedIfEmpty loads the example records when the store holds no recipes.
// Running it against a populated store is a no-op beyond the count scan,
// which keeps Initialize idempotent.
func seedIfEmpty(ctx context.Context, s Store) error {
	n, err := Seed(ctx, s)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Seeded %d example recipes", n)
	}
	return nil
}
