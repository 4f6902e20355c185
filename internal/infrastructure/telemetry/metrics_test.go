package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap/zaptest"
)

// newTestMeterProvider installs a provider backed by a manual reader
func newTestMeterProvider(t *testing.T) (*MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	original := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(original) })

	res, err := serviceResource("backoffice-test", "1.2.3")
	require.NoError(t, err)
	reader := sdkmetric.NewManualReader()
	mp := (&MeterProvider{logger: zaptest.NewLogger(t)}).install(reader, res)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// collectMetric returns the named metric from the reader, failing if absent
func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.Metrics{}
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{
		Enabled:     false,
		ServiceName: "backoffice-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("noop"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestServiceResource(t *testing.T) {
	res, err := serviceResource("backoffice", "")
	require.NoError(t, err)

	name, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "backoffice", name.AsString())

	version, ok := res.Set().Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, "dev", version.AsString())
}
