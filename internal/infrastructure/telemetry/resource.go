package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// shutdownTimeout bounds the final flush of each exporter
const shutdownTimeout = 10 * time.Second

// serviceResource describes this process to the collector
func serviceResource(name, version string) (*resource.Resource, error) {
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("describe service resource: %w", err)
	}
	return res, nil
}

// shutdownWithin flushes one signal's provider, giving up after shutdownTimeout
func shutdownWithin(ctx context.Context, signal string, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("flush OTLP %s: %w", signal, err)
	}
	return nil
}
