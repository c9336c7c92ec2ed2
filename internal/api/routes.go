package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stylora/fashion-nlp/internal/telemetry"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handler *Handler, provider *telemetry.Provider) {
	// Root and readiness (liveness /health is registered by the server
	// builder)
	router.GET("/", handler.Root)
	router.GET("/ready", handler.ReadyCheck)
	router.GET("/metrics", gin.WrapH(provider.Handler()))

	// Combined NER + QA endpoint; the trailing slash is part of the
	// public contract
	router.POST("/process/", handler.Process)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/keywords", handler.ListKeywords)      // GET /api/v1/keywords
		v1.GET("/models/health", handler.ModelsHealth) // GET /api/v1/models/health
	}
}
