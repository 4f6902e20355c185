package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
)

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithRequestID stores the request id and a logger tagged with it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	if requestID != "" {
		logger = logger.With(zap.String("request_id", requestID))
	}
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, logger), logger
}

// RequestID returns the id stored by WithRequestID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// FromContext returns the request logger carried by ctx, or fallback when
// there is none. Either way, trace_id and span_id are added when ctx holds
// a valid span.
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		logger = fallback
	}
	if logger == nil {
		return zap.NewNop()
	}

	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
