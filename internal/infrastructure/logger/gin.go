package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinRequestIDKey is the gin context key the request id middleware sets
const GinRequestIDKey = "request_id"

// RequestLogConfig tunes the access log
type RequestLogConfig struct {
	// QuietPrefixes are only logged when they fail with a 5xx
	QuietPrefixes []string
	// SlowThreshold raises successful requests slower than it to warn; zero disables
	SlowThreshold time.Duration
}

// DefaultRequestLogConfig keeps probes quiet and flags requests over 5s,
// which in practice are packet and report renders
func DefaultRequestLogConfig() RequestLogConfig {
	return RequestLogConfig{
		QuietPrefixes: []string{"/health", "/metrics", "/swagger"},
		SlowThreshold: 5 * time.Second,
	}
}

// RequestLogger logs one entry per request and puts a request-scoped logger
// on the request context for FromContext
func RequestLogger(logger *zap.Logger, cfg RequestLogConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		ctx, reqLogger := WithRequestID(c.Request.Context(), logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		), c.GetString(GinRequestIDKey))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusInternalServerError && hasPrefix(path, cfg.QuietPrefixes) {
			return
		}

		latency := time.Since(start)
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		log := FromContext(c.Request.Context(), reqLogger)
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("Request rejected", fields...)
		case cfg.SlowThreshold > 0 && latency > cfg.SlowThreshold:
			log.Warn("Slow request", fields...)
		default:
			log.Info("Request served", fields...)
		}
	}
}

// Recovery turns a handler panic into a logged 500 with the standard
// error envelope
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := c.GetString(GinRequestIDKey)
			log := FromContext(c.Request.Context(), logger)
			if RequestID(c.Request.Context()) == "" && requestID != "" {
				log = log.With(zap.String("request_id", requestID))
			}
			log.Error("Panic recovered",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_INTERNAL",
					"message":    "An unexpected error occurred",
					"request_id": requestID,
				},
			})
		}()
		c.Next()
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
