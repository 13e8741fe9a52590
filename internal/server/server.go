package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/barkeepapp/barkeep/backend/config"
	"github.com/barkeepapp/barkeep/backend/internal/api"
	"github.com/barkeepapp/barkeep/backend/internal/chat"
	"github.com/barkeepapp/barkeep/backend/internal/middleware"
	"github.com/barkeepapp/barkeep/backend/internal/router"
	"github.com/barkeepapp/barkeep/backend/internal/store"
	"github.com/barkeepapp/barkeep/backend/internal/tools"
)

// Server owns the HTTP listener and the optional Redis connection.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	redis  *redis.Client
	port   string
}

// New assembles the handlers and routes for the configured store. The chat
// endpoint is only mounted when a DeepSeek API key is configured; image
// upload is only enabled when an S3 bucket is configured.
func New(ctx context.Context, cfg *config.Config, s store.Store) (*Server, error) {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var images api.ImageStorage
	if cfg.S3Bucket != "" {
		s3, err := config.NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		images = s3
	}

	handlers := router.Handlers{
		Recipes:   api.NewRecipeHandler(s, images),
		Inventory: api.NewInventoryHandler(s),
	}

	var redisClient *redis.Client
	if cfg.RedisHost != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, rate limiting disabled: %v", err)
			redisClient = nil
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.DeepSeekAPIKey != "" {
		llm, err := chat.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("llm client: %w", err)
		}
		orchestrator := chat.NewOrchestrator(llm, tools.NewRegistry(s))
		handlers.Chat = api.NewChatHandler(orchestrator)
		limiter = middleware.NewChatRateLimiter(redisClient)
	}

	engine := router.Setup(handlers, cfg.JWTSecret, limiter)

	return &Server{
		engine: engine,
		redis:  redisClient,
		port:   cfg.ServerPort,
	}, nil
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    ":" + s.port,
		Handler: s.engine,
	}

	errc := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Stop(ctx)
}

// Stop gracefully stops the HTTP server and closes the Redis connection.
func (s *Server) Stop(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("redis close: %v", err)
		}
	}
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
