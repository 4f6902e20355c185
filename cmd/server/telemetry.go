package main

import (
	"context"

	"github.com/advisory/backoffice/internal/bootstrap"
	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/advisory/backoffice/internal/infrastructure/logger"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// telemetryStack holds the OpenTelemetry providers and the profiler. Every
// field is nil when the matching signal is disabled.
type telemetryStack struct {
	tracer    *telemetry.TracerProvider
	meter     *telemetry.MeterProvider
	logs      *telemetry.LoggerProvider
	profiler  *telemetry.Profiler
	dbMetrics *telemetry.DBMetrics
	cfg       config.TelemetryConfig
}

// setupTelemetry starts the configured providers. When OTLP logs are on it
// returns a logger that writes to both the base output and the collector.
func setupTelemetry(ctx context.Context, cfg *config.Config, logCfg *logger.Config, log *zap.Logger) (*telemetryStack, *zap.Logger) {
	tc := cfg.Telemetry
	t := &telemetryStack{cfg: tc}
	if !tc.Enabled {
		return t, log
	}

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Enabled:           true,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Tracing unavailable", zap.Error(err))
	} else {
		t.tracer = tp
	}

	if tc.MetricsEnabled {
		mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
			Enabled:           true,
			CollectorEndpoint: tc.CollectorEndpoint,
			ExportInterval:    tc.MetricsInterval,
			ServiceName:       tc.ServiceName,
			ServiceVersion:    cfg.App.Version,
			Insecure:          tc.Insecure,
		}, log)
		if err != nil {
			log.Warn("OTLP metrics unavailable", zap.Error(err))
		} else {
			t.meter = mp
		}
	}

	if tc.ProfilingEnabled {
		p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:         true,
			ServerAddress:   tc.ProfilingAddress,
			ApplicationName: tc.ServiceName,
			ServiceVersion:  cfg.App.Version,
		}, log)
		if err != nil {
			log.Warn("Profiling unavailable", zap.Error(err))
		} else {
			t.profiler = p
			if t.tracer != nil {
				if err := t.tracer.EnableSpanProfiles(); err != nil {
					log.Warn("Span profiles unavailable", zap.Error(err))
				}
			}
		}
	}

	if tc.LogsEnabled {
		lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
			Enabled:           true,
			CollectorEndpoint: tc.CollectorEndpoint,
			ServiceName:       tc.ServiceName,
			ServiceVersion:    cfg.App.Version,
			Insecure:          tc.Insecure,
		}, log)
		if err != nil {
			log.Warn("OTLP logs unavailable", zap.Error(err))
			return t, log
		}
		t.logs = lp
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    tc.ServiceName,
			LoggerProvider: lp,
			Level:          logger.ParseLevel(logCfg.Level),
		})
		bridged, err := logger.New(logCfg, otelCore)
		if err != nil {
			log.Warn("Failed to bridge logger to OTLP", zap.Error(err))
			return t, log
		}
		_ = logger.Sync(log)
		log = bridged
	}

	return t, log
}

// attachDatabase adds statement spans and exports pool and query metrics
func (t *telemetryStack) attachDatabase(ctx context.Context, container *bootstrap.Container, log *zap.Logger) {
	db := container.DB.DB
	if t.tracer != nil && container.Config.Telemetry.DBTraceEnabled {
		err := telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{
			DBName:             databaseName(container.Config.Database),
			WithQueryVariables: !container.Config.IsProduction(),
		}, container.Clock, log)
		if err != nil {
			log.Warn("Database tracing unavailable", zap.Error(err))
		}
	}
	if t.meter == nil {
		return
	}
	m, err := telemetry.RegisterDBMetrics(db, t.meter, telemetry.DefaultDBMetricsConfig(), container.Clock, log)
	if err != nil {
		log.Warn("Database metrics unavailable", zap.Error(err))
		return
	}
	if m != nil {
		m.StartPoolStatsCollection(ctx)
		t.dbMetrics = m
	}
}

func databaseName(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverPostgres {
		return cfg.DBName
	}
	return cfg.SQLitePath
}

// shutdown flushes and stops every provider
func (t *telemetryStack) shutdown(ctx context.Context, log *zap.Logger) {
	if t.dbMetrics != nil {
		t.dbMetrics.Stop()
	}
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			log.Warn("Error stopping profiler", zap.Error(err))
		}
	}
	if t.meter != nil {
		if err := t.meter.Shutdown(ctx); err != nil {
			log.Warn("Error shutting down meter provider", zap.Error(err))
		}
	}
	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			log.Warn("Error shutting down tracer provider", zap.Error(err))
		}
	}
	if t.logs != nil {
		if err := t.logs.Shutdown(ctx); err != nil {
			log.Warn("Error shutting down logger provider", zap.Error(err))
		}
	}
}
