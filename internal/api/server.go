// Package api provides the HTTP surface of the zone importer: parsing,
// previewing and importing zone text through a Gin-based server.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kreigan/zone-importer/internal/api/handlers"
	"github.com/kreigan/zone-importer/internal/api/middleware"
	"github.com/kreigan/zone-importer/internal/config"
	"github.com/kreigan/zone-importer/internal/logger"
)

// Server is the zone importer HTTP API server.
//
// Do not expose it to untrusted networks without setting server.api_key.
type Server struct {
	cfg        *config.Config
	log        *logger.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// Options tunes New beyond the configuration.
type Options struct {
	// Version is reported by the health endpoint
	Version string
	// NewClient replaces the Azion client, mostly for tests
	NewClient handlers.ClientFactory
}

// New creates a server for cfg. It panics when cfg is nil.
func New(cfg *config.Config, log *logger.Logger, opts Options) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}
	if log == nil {
		log = logger.Discard()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(log.Logr().WithName("http")))

	h := handlers.New(cfg, log, opts.NewClient)
	h.SetVersion(opts.Version)
	RegisterRoutes(engine, h, cfg)

	// No WriteTimeout: an import stream stays open for the whole import.
	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, log: log, engine: engine, httpServer: httpServer}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

// Engine exposes the router, mostly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("Listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server, waiting for active requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
