// Package v1 provides HTTP API version 1: the read-only report surface of
// the batch engine.
package v1

import (
	"github.com/gin-gonic/gin"

	"cpstock/internal/domain/pipeline"
	"cpstock/internal/infrastructure/http/v1/handlers"
	"cpstock/internal/infrastructure/http/v1/middleware"
	"cpstock/internal/infrastructure/storage/postgres"
	"cpstock/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// Engine is the pipeline orchestration surface
	Engine *pipeline.Engine
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Report reads
	base := handlers.NewBaseHandler()
	snapshotHandler := handlers.NewSnapshotHandler(base, cfg.Engine)
	api := router.Group("/api/v1")
	{
		api.GET("/snapshot/:date", snapshotHandler.GetSnapshot)
		api.GET("/snapshot/:date/validation", snapshotHandler.GetValidation)
	}

	return router
}
