// Package server exposes the aggregated space weather status over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"heliopulse/internal/charts"
	"heliopulse/internal/logger"
	"heliopulse/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Aggregator is the part of the aggregation layer the handlers use
type Aggregator interface {
	FetchAggregateStatus(ctx context.Context, groups []models.MetricGroup) (*models.AggregateResult, error)
}

// Server serves the JSON API, the dashboard and the metrics endpoint
type Server struct {
	agg         Aggregator
	dashboard   *charts.Dashboard
	gatherer    prometheus.Gatherer
	snapshots   *Snapshotter
	environment string
	middlewares []func(http.Handler) http.Handler
	now         func() time.Time
	log         *logger.Logger
}

// Option configures the server
type Option func(*Server)

// WithGatherer exposes the registry on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithSnapshots mounts the snapshot routes
func WithSnapshots(sn *Snapshotter) Option {
	return func(s *Server) { s.snapshots = sn }
}

// WithEnvironment names the deployment in the service descriptor
func WithEnvironment(env string) Option {
	return func(s *Server) { s.environment = env }
}

// WithMiddlewares adds middleware after the defaults
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.middlewares = append(s.middlewares, mw...) }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a server
func New(agg Aggregator, dashboard *charts.Dashboard, opts ...Option) *Server {
	s := &Server{
		agg:         agg,
		dashboard:   dashboard,
		environment: "development",
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("server")
	}
	return s
}

// Router builds the chi router with all routes mounted
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.LoggingMiddleware)
	r.Use(middleware.Recoverer)
	for _, mw := range s.middlewares {
		r.Use(mw)
	}

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/dashboard", s.handleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Route("/solar", func(r chi.Router) {
			r.Get("/status", s.handleStatus)
			r.Get("/wind", s.handleGroup(models.GroupSolarWind))
			r.Get("/sunspots", s.handleGroup(models.GroupSunspots))
			r.Get("/alerts", s.handleGroup(models.GroupAlerts))
			r.Get("/flares", s.handleFlares)
			r.Get("/geomagnetic", s.handleGeomagnetic)
		})
		r.Get("/nasa/apod", s.handleGroup(models.GroupAPOD))
		if s.snapshots != nil {
			r.Get("/snapshots", s.handleListSnapshots)
			r.Post("/snapshots", s.handleCreateSnapshot)
		}
	})

	if s.snapshots != nil {
		r.Get("/snapshots/*", s.handleSnapshotFile)
	}

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// LoggingMiddleware logs every request with its status and duration
func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info("HTTP request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}
