package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kreigan/zone-importer/internal/api/handlers"
	"github.com/kreigan/zone-importer/internal/api/middleware"
	"github.com/kreigan/zone-importer/internal/config"
)

// RegisterRoutes mounts the API under /api/v1. The health endpoint stays
// public even when an API key is configured.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	api := r.Group("/api/v1")
	api.GET("/health", h.Health)

	protected := api.Group("")
	if cfg != nil && cfg.Server.APIKey != "" {
		protected.Use(middleware.RequireAPIKey(cfg.Server.APIKey))
	}

	protected.POST("/parse", h.Parse)
	protected.POST("/transform", h.Transform)
	protected.POST("/import", h.Import)
}
