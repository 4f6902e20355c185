package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCodeKey holds the envelope error code written for the request
const ErrorCodeKey = "error_code"

// Span attributes added on top of the otelgin server span
const (
	AttrRequestID = attribute.Key("app.request_id")
	AttrUsername  = attribute.Key("app.username")
	AttrErrorCode = attribute.Key("app.error_code")
)

// TracingConfig configures request spans
type TracingConfig struct {
	ServiceName string
	// SkipPrefixes are path prefixes that never get a span
	SkipPrefixes []string
}

// DefaultTracingConfig skips probes, scrapes and the docs
func DefaultTracingConfig(serviceName string) TracingConfig {
	return TracingConfig{
		ServiceName:  serviceName,
		SkipPrefixes: []string{"/health", "/metrics", "/swagger"},
	}
}

// Tracing returns the otelgin server middleware followed by an annotator
// that runs inside the server span. Register both with engine.Use.
func Tracing(cfg TracingConfig) []gin.HandlerFunc {
	skip := cfg.SkipPrefixes
	server := otelgin.Middleware(cfg.ServiceName,
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			path := c.Request.URL.Path
			for _, prefix := range skip {
				if strings.HasPrefix(path, prefix) {
					return false
				}
			}
			return true
		}),
	)
	return []gin.HandlerFunc{server, annotateSpan}
}

// annotateSpan records the request id up front, then the caller and the
// envelope error code once the handlers have run
func annotateSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if id := GetRequestID(c); id != "" {
		span.SetAttributes(AttrRequestID.String(id))
	}

	c.Next()

	if username := GetJWTUsername(c); username != "" {
		span.SetAttributes(AttrUsername.String(username))
	}
	if c.Writer.Status() >= http.StatusBadRequest {
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(AttrErrorCode.String(code))
		}
	}
}

// SetErrorCode remembers the envelope code for the request span
func SetErrorCode(c *gin.Context, code string) {
	c.Set(ErrorCodeKey, code)
}
