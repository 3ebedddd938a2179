package http

import (
	"github.com/gin-gonic/gin"
	"github.com/gizibunda/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, logger))
	v1.Use(TimeoutMiddleware(cfg.Server.RequestTimeout))
	{
		nutrition := v1.Group("/nutrition")
		{
			nutrition.POST("/analyze", handler.AnalyzeNutrition)
			nutrition.POST("/targets", handler.CalculateTargets)
		}

		meals := v1.Group("/meal-logs")
		{
			meals.POST("", handler.LogMeal)
			meals.GET("/:userId", handler.GetDailyLog)
			meals.POST("/:userId/progress", handler.GetProgress)
		}
	}

	return router
}
