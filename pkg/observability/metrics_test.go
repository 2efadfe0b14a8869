package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDirectoryRequest("list_persons", "200", time.Millisecond)
		m.ObserveNameCacheLookup(true)
		m.SetNameCacheEntries(3)
		m.SetPagesTotal(7)
	})
}

func TestObserveNameCacheLookup(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveNameCacheLookup(true)
	m.ObserveNameCacheLookup(true)
	m.ObserveNameCacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NameCacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NameCacheMissesTotal))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m, func(r *http.Request) string {
		return "/pages/{page_path}"
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/pages/docs", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/pages/{page_path}", "418"))
	assert.Equal(t, 1.0, count)
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.SetPagesTotal(5)

	rec := httptest.NewRecorder()
	MetricsHandler(registry).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orgwiki_pages_total 5")
}
