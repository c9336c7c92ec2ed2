package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stylora/fashion-nlp/internal/config"
	"github.com/stylora/fashion-nlp/internal/httpserver"
	"github.com/stylora/fashion-nlp/internal/logging"
	"github.com/stylora/fashion-nlp/internal/telemetry"
)

// NewServer builds the HTTP server with the standard middleware chain,
// health routes, and API routes.
func NewServer(
	handler *Handler,
	cfg *config.Config,
	provider *telemetry.Provider,
	log logging.Logger,
) *httpserver.Server {
	return httpserver.NewServerBuilder(cfg.Service.Name, cfg.Server.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, handler, provider)
		}).
		Build()
}
