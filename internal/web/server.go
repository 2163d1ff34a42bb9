// Package web exposes the recommendation core over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/soniq-labs/soniq-core/internal/config"
)

// Server is the HTTP server for the recommendation service.
type Server struct {
	router          chi.Router
	server          *http.Server
	handlers        *Handlers
	metrics         *Metrics
	log             zerolog.Logger
	shutdownTimeout time.Duration
}

// NewServer creates the HTTP server with routing and middleware wired.
func NewServer(cfg config.ServerConfig, handlers *Handlers, metrics *Metrics, log zerolog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		router:          router,
		handlers:        handlers,
		metrics:         metrics,
		log:             log,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.metrics.Instrument)
}

// setupRoutes configures the application routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handlers.Healthz)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/recommendations/next", s.handlers.NextTrack)
		r.Get("/recommendations/wormhole", s.handlers.Wormhole)
		r.Get("/recommendations/playlist", s.handlers.Playlist)

		r.Post("/sessions/{session_id}/skips", s.handlers.ReportSkip)
		r.Delete("/sessions/{session_id}", s.handlers.EndSession)

		r.Get("/users/{user_id}/archetype", s.handlers.Archetype)
		r.Get("/universe", s.handlers.Universe)

		r.Post("/admin/reload", s.handlers.ReloadCatalog)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt
// signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info().Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info().Msg("server stopped")
	return nil
}
