package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsRouter(t *testing.T) (*gin.Engine, *HTTPMetrics) {
	t.Helper()
	m := NewHTTPMetrics(prometheus.NewRegistry())
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/v1/crm/clients/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "client")
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, m
}

func TestHTTPMetrics_RecordsRoutePattern(t *testing.T) {
	router, m := newMetricsRouter(t)

	for _, id := range []string{"1", "2", "3"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/crm/clients/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	counter := m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/crm/clients/:id", "200")
	assert.Equal(t, float64(3), testutil.ToFloat64(counter))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InFlight))
}

func TestHTTPMetrics_UnmatchedAndSkipped(t *testing.T) {
	router, m := newMetricsRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
}

func TestHTTPMetricsStatusGroup(t *testing.T) {
	tests := map[int]string{
		101: "1xx",
		200: "2xx",
		204: "2xx",
		302: "3xx",
		404: "4xx",
		410: "4xx",
		500: "5xx",
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPMetricsStatusGroup(code), "status %d", code)
	}
}
