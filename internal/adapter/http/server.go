// Package http serves the dashboard views as a JSON API alongside the health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/pipeline"
)

// Dashboard is the view layer the API exposes. *pipeline.Dashboard implements it.
type Dashboard interface {
	sharedobs.ReadinessChecker
	Summary(ctx context.Context) (pipeline.Summary, error)
	Records(ctx context.Context, offset, limit int) ([]domain.Record, int, error)
	Collisions(ctx context.Context, c domain.Criteria) (*domain.RecordSet, error)
	Histogram(ctx context.Context, c domain.Criteria) ([domain.MinutesPerHour]int, error)
	TopStreets(ctx context.Context, c domain.Criteria, cat domain.Category, limit int) ([]domain.StreetInjuries, error)
	Density(ctx context.Context, c domain.Criteria, res int) ([]domain.DensityCell, error)
}

// Server exposes the dashboard API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server for dash.
func NewServer(addr string, dash Dashboard, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors)

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(dash))
	r.Handle("/metrics", promhttp.Handler())

	a := &api{dash: dash, logger: logger}
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", a.summary)
		r.Get("/records", a.records)
		r.Get("/collisions", a.collisions)
		r.Get("/histogram", a.histogram)
		r.Get("/top-streets", a.topStreets)
		r.Get("/density", a.density)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
