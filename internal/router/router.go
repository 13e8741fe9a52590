package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/barkeepapp/barkeep/backend/internal/api"
	"github.com/barkeepapp/barkeep/backend/internal/middleware"
)

// Handlers collects the API handlers the router wires up. Chat and its
// rate limiter are optional; the endpoint is omitted when no chat handler
// is configured.
type Handlers struct {
	Recipes   *api.RecipeHandler
	Inventory *api.InventoryHandler
	Chat      *api.ChatHandler
}

// Setup configures the application routes.
func Setup(handlers Handlers, jwtSecret string, chatLimiter *middleware.RateLimiter) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authorized := middleware.Authorize(jwtSecret)

	v1 := router.Group("/api")
	handlers.Recipes.RegisterRoutes(v1, authorized)
	handlers.Inventory.RegisterRoutes(v1, authorized)

	if handlers.Chat != nil {
		var limit gin.HandlerFunc
		if chatLimiter != nil {
			limit = chatLimiter.Middleware()
		}
		handlers.Chat.RegisterRoutes(v1, limit)
	}

	return router
}
