package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Directory (external identity service) metrics
	DirectoryRequestsTotal   *prometheus.CounterVec
	DirectoryRequestDuration *prometheus.HistogramVec

	// Org name cache metrics
	NameCacheHitsTotal   prometheus.Counter
	NameCacheMissesTotal prometheus.Counter
	NameCacheEntries     prometheus.Gauge

	// Business metrics
	PagesTotal prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgwiki_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgwiki_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		DirectoryRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgwiki_directory_requests_total",
				Help: "Total number of requests to the identity directory",
			},
			[]string{"operation", "status"},
		),
		DirectoryRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgwiki_directory_request_duration_seconds",
				Help:    "Identity directory request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		NameCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orgwiki_name_cache_hits_total",
				Help: "Total number of org name cache hits",
			},
		),
		NameCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orgwiki_name_cache_misses_total",
				Help: "Total number of org name cache misses",
			},
		),
		NameCacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orgwiki_name_cache_entries",
				Help: "Current number of org name cache entries",
			},
		),
		PagesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orgwiki_pages_total",
				Help: "Current number of pages held in the in-memory store",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DirectoryRequestsTotal,
		m.DirectoryRequestDuration,
		m.NameCacheHitsTotal,
		m.NameCacheMissesTotal,
		m.NameCacheEntries,
		m.PagesTotal,
	)

	return m
}

// ObserveDirectoryRequest records one identity directory round-trip. Safe to
// call on a nil receiver so components can run unmetered in tests.
func (m *Metrics) ObserveDirectoryRequest(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DirectoryRequestsTotal.WithLabelValues(operation, status).Inc()
	m.DirectoryRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveNameCacheLookup records a name cache hit or miss. Nil-safe.
func (m *Metrics) ObserveNameCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.NameCacheHitsTotal.Inc()
	} else {
		m.NameCacheMissesTotal.Inc()
	}
}

// SetNameCacheEntries updates the cache size gauge. Nil-safe.
func (m *Metrics) SetNameCacheEntries(n int) {
	if m == nil {
		return
	}
	m.NameCacheEntries.Set(float64(n))
}

// SetPagesTotal updates the page store size gauge. Nil-safe.
func (m *Metrics) SetPagesTotal(n int) {
	if m == nil {
		return
	}
	m.PagesTotal.Set(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// The route label uses the matched route template, not the raw URL, to keep
// cardinality bounded for the wildcard page paths.
func HTTPMetricsMiddleware(metrics *Metrics, routeName func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if routeName != nil {
				if name := routeName(r); name != "" {
					route = name
				}
			}

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
		})
	}
}

// MetricsHandler returns the /metrics endpoint handler for a registry
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
