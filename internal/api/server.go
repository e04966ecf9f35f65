// Package api exposes the name history over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"github.com/ersonp/name-historian/internal/application/handlers"
	"github.com/ersonp/name-historian/internal/infrastructure/config"
)

// Handlers are the use cases served by the API.
type Handlers struct {
	History *handlers.HistoryHandler
	Resolve *handlers.ResolveHandler
	Observe *handlers.ObserveHandler
	Import  *handlers.ImportHandler
}

// Server represents the API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new API server. metrics, when non-nil, is mounted at /metrics.
func NewServer(logger *slog.Logger, cfg config.APIConfig, h Handlers, metrics http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(logger, h, metrics),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter builds the HTTP routes.
func NewRouter(logger *slog.Logger, h Handlers, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:             slog.LevelDebug,
		Schema:            httplog.SchemaECS.Concise(true),
		LogRequestHeaders: []string{},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	api := &historyAPI{handlers: h}
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/history/{player}", api.getHistory)
		r.Post("/history/{identity}/import", api.importHistory)
		r.Get("/names/{name}", api.whois)
		r.Post("/observations", api.observe)
	})

	return r
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		s.logger.Error("Server error", "err", err)
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Server shutdown error", "err", err)
	} else {
		s.logger.Info("Server shutdown complete")
	}
	return err
}
