// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handler "github.com/newthinker/stockwatch/internal/api/handler/api"
	"github.com/newthinker/stockwatch/internal/api/middleware"
	"github.com/newthinker/stockwatch/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for stockwatch
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	APIKey         string
	RequestTimeout time.Duration
	MetricsPath    string
}

// Dependencies are the services the routes call into.
type Dependencies struct {
	Dashboard interface {
		handler.Dashboard
		handler.CompanyService
	}
	Resolver handler.Resolver
	Metrics  *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Dashboard == nil || deps.Resolver == nil {
		return nil, fmt.Errorf("dashboard and resolver are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	var h http.Handler = mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)
	s.handler = h

	// The write timeout leaves room for the upstream deadline to fire first.
	writeTimeout := 15 * time.Second
	if cfg.RequestTimeout > 0 && cfg.RequestTimeout+5*time.Second > writeTimeout {
		writeTimeout = cfg.RequestTimeout + 5*time.Second
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	protect := func(h http.HandlerFunc) http.Handler {
		return middleware.APIKeyAuth(cfg.APIKey)(middleware.Deadline(cfg.RequestTimeout)(h))
	}

	search := handler.NewSearchHandler(deps.Resolver, s.logger)
	company := handler.NewCompanyHandler(deps.Dashboard)
	watch := handler.NewWatchlistHandler(deps.Dashboard)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.Handle("GET /api/search", protect(search.Search))
	s.mux.Handle("GET /api/company/{symbol}", protect(company.Get))

	s.mux.Handle("GET /api/watchlist", protect(watch.List))
	s.mux.Handle("POST /api/watchlist", protect(watch.Add))
	s.mux.Handle("GET /api/watchlist/rows", protect(watch.Rows))
	s.mux.Handle("POST /api/watchlist/sort", protect(watch.Sort))
	s.mux.Handle("DELETE /api/watchlist", protect(watch.Clear))
	s.mux.Handle("DELETE /api/watchlist/{symbol}", protect(watch.Remove))
	s.mux.Handle("POST /api/watchlist/{symbol}/toggle", protect(watch.Toggle))

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
