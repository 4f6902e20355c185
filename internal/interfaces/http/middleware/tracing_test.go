package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	original := otel.GetTracerProvider()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(original)
	})
	return sr
}

func newTracedRouter() *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Tracing(DefaultTracingConfig("backoffice-test"))...)

	asAdviser := func(c *gin.Context) { c.Set(JWTUsernameKey, "dana") }
	router.GET("/api/v1/crm/clients/:id", asAdviser, func(c *gin.Context) {
		if c.Param("id") == "404" {
			SetErrorCode(c, "CLIENT_NOT_FOUND")
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})
	router.GET("/api/v1/crm/report.pdf", func(c *gin.Context) {
		SetErrorCode(c, "ERR_INTERNAL")
		c.Status(http.StatusInternalServerError)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_AnnotatesServerSpan(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/crm/clients/7", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/crm/clients/:id", spans[0].Name())

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-7", attrs[AttrRequestID].AsString())
	assert.Equal(t, "dana", attrs[AttrUsername].AsString())
	_, hasCode := attrs[AttrErrorCode]
	assert.False(t, hasCode)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_RecordsErrorCode(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/crm/clients/404", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/crm/report.pdf", nil))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	notFound := spanAttrs(spans[0])
	assert.Equal(t, "CLIENT_NOT_FOUND", notFound[AttrErrorCode].AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code, "4xx leaves server span status unset")

	failed := spanAttrs(spans[1])
	assert.Equal(t, "ERR_INTERNAL", failed[AttrErrorCode].AsString())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracing_SkipsProbes(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig("backoffice")
	assert.Equal(t, "backoffice", cfg.ServiceName)
	assert.Contains(t, cfg.SkipPrefixes, "/metrics")
}
