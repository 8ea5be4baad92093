// Package server exposes the analytics engine over a REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/riskcore/internal/common"
	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/services/analytics"
)

// Server wraps the HTTP server and the analytics service.
type Server struct {
	config    *common.Config
	logger    *common.Logger
	server    *http.Server
	analytics interfaces.AnalyticsService
}

// NewServer creates a new HTTP REST API server.
func NewServer(config *common.Config, logger *common.Logger) *Server {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	s := &Server{
		config:    config,
		logger:    logger,
		analytics: analytics.NewMemoizedService(analytics.NewService(logger)),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, logger, config)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
