package main

import (
	"context"
	"log"

	"github.com/barkeepapp/barkeep/backend/config"
	"github.com/barkeepapp/barkeep/backend/internal/store"
)

// Prepares the configured backend: runs migrations and index creation and
// loads the starter recipe set into an empty store. Safe to run more than
// once; a store that already holds recipes is left alone.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx := context.Background()

	s, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StorageBackend, err)
	}
	defer s.Close()

	if err := s.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	count, err := s.CountRecipes(ctx)
	if err != nil {
		log.Fatalf("Count failed: %v", err)
	}
	log.Printf("%s store ready with %d recipes", cfg.StorageBackend, count)
}
