package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pantry/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if handler.metrics != nil {
		router.Use(handler.metrics.Middleware())
		router.GET("/metrics", handler.metrics.Handler())
	}

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		meals := v1.Group("/meals")
		{
			meals.GET("", handler.ListMeals)
			meals.GET("/search", handler.SearchMeals)
			meals.GET("/:id", handler.GetMeal)
		}

		v1.GET("/categories/toggle", handler.ToggleCategory)

		cart := v1.Group("/cart")
		{
			cart.GET("", handler.GetCart)
			cart.DELETE("", handler.ClearCart)
			cart.POST("/items/:id", handler.AddCartItem)
			cart.PUT("/items/:id", handler.UpdateCartItem)
			cart.DELETE("/items/:id", handler.RemoveCartItem)
			cart.POST("/summary", handler.CartSummary)
		}

		favorites := v1.Group("/favorites")
		{
			favorites.GET("", handler.GetFavorites)
			favorites.POST("/:id/toggle", handler.ToggleFavorite)
		}
	}

	return router
}
