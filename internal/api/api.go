// Package api exposes the scheduled jobs and ingestion endpoints over HTTP.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/champtrack/champtrack/internal/config"
	"github.com/champtrack/champtrack/internal/detector"
	"github.com/champtrack/champtrack/internal/dispatch"
	"github.com/champtrack/champtrack/internal/ingest"
	"github.com/champtrack/champtrack/internal/mailer"
	"github.com/champtrack/champtrack/internal/oauth"
	"github.com/champtrack/champtrack/internal/storage"
)

// Deps are the collaborators the API surfaces.
type Deps struct {
	Storage    storage.Storage
	Detector   *detector.Detector
	Enqueuer   *dispatch.Enqueuer
	Dispatcher *dispatch.Dispatcher
	Refresher  *oauth.Refresher
	Ingest     *ingest.Service
	Mailer     *mailer.Mailer
}

// Server is the champtrack HTTP API server.
type Server struct {
	config config.APIConfig
	deps   Deps
	jwt    *JWTService

	httpServer *http.Server
}

// NewServer creates an API server.
func NewServer(cfg config.APIConfig, deps Deps) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("api.jwt_secret is required")
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		jwt:    NewJWTService([]byte(cfg.JWTSecret), 24*time.Hour),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	log.Printf("api: listening on %s", s.config.Address)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the configured HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
