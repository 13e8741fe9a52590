package main

import (
	"context"
	"log"

	"github.com/barkeepapp/barkeep/backend/config"
	"github.com/barkeepapp/barkeep/backend/internal/server"
	"github.com/barkeepapp/barkeep/backend/internal/store"
)

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
	log.Printf("Storage backend: %s", cfg.StorageBackend)

	srv, err := server.New(ctx, cfg, s)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
