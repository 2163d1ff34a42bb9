package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	recommendations *prometheus.CounterVec
	wormholePaths   prometheus.Counter
	archetypes      *prometheus.CounterVec
	catalogTracks   prometheus.Gauge
	activeSessions  prometheus.Gauge
}

// NewMetrics creates and registers the service metrics on a fresh
// registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soniq",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soniq",
			Name:      "recommendations_total",
			Help:      "Recommendations served, by outcome.",
		}, []string{"outcome"}),
		wormholePaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soniq",
			Name:      "wormhole_paths_total",
			Help:      "Wormhole paths generated.",
		}),
		archetypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soniq",
			Name:      "archetype_classifications_total",
			Help:      "Archetype classifications, by label.",
		}, []string{"label"}),
		catalogTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soniq",
			Name:      "catalog_tracks",
			Help:      "Tracks in the active catalog snapshot.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soniq",
			Name:      "active_sessions",
			Help:      "Listening sessions currently held in memory.",
		}),
	}
	reg.MustRegister(
		m.requestDuration,
		m.recommendations,
		m.wormholePaths,
		m.archetypes,
		m.catalogTracks,
		m.activeSessions,
	)
	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument is chi middleware recording request latency per route.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requestDuration.WithLabelValues(
			route,
			r.Method,
			strconv.Itoa(ww.Status()),
		).Observe(time.Since(start).Seconds())
	})
}
