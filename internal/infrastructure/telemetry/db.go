package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

// callbackRegistrar is satisfied by the builders returned from gorm's
// Callback().X().Before/After
type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// queryHook is one gorm callback chain. A fixed operation labels the
// statement; an empty one is detected from the SQL text.
type queryHook struct {
	name      string
	operation string
	before    callbackRegistrar
	after     callbackRegistrar
}

// queryHooks lists the chains of db. With spanEnd set, the after callbacks
// run before the named otelgorm hook ends the statement span.
func queryHooks(db *gorm.DB, spanEnd bool) []queryHook {
	cb := db.Callback()
	end := func(name string) string {
		if !spanEnd {
			return ""
		}
		return "otel:after:" + name
	}
	return []queryHook{
		{"create", "INSERT", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create").Before(end("create"))},
		{"query", "SELECT", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query").Before(end("select"))},
		{"update", "UPDATE", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update").Before(end("update"))},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete").Before(end("delete"))},
		{"row", "", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row").Before(end("row"))},
		{"raw", "", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw").Before(end("raw"))},
	}
}

// startKey stores the statement start time; each plugin uses its own value
type startKey string

// registerTimed wraps every statement with a start-time stamp and an
// after callback that receives the operation and elapsed time
func registerTimed(db *gorm.DB, prefix string, spanEnd bool, clock clockwork.Clock, after func(tx *gorm.DB, operation string, elapsed time.Duration)) error {
	key := startKey(prefix)
	for _, h := range queryHooks(db, spanEnd) {
		stamp := func(tx *gorm.DB) {
			ctx := tx.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			tx.Statement.Context = context.WithValue(ctx, key, clock.Now())
		}
		operation := h.operation
		finish := func(tx *gorm.DB) {
			op := operation
			if op == "" {
				op = detectOperationType(tx.Statement.SQL.String())
			}
			var elapsed time.Duration
			if tx.Statement.Context != nil {
				if start, ok := tx.Statement.Context.Value(key).(time.Time); ok {
					elapsed = clock.Since(start)
				}
			}
			after(tx, op, elapsed)
		}
		if err := h.before.Register(prefix+":before_"+h.name, stamp); err != nil {
			return err
		}
		if err := h.after.Register(prefix+":after_"+h.name, finish); err != nil {
			return err
		}
	}
	return nil
}

// detectOperationType reads the verb of a raw statement
func detectOperationType(query string) string {
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, verb) {
			return verb
		}
	}
	return "OTHER"
}

// DBMetricsConfig configures query and connection pool metrics
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig returns the server's database metrics settings
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: defaultSlowQueryThreshold,
		PoolStatsInterval:  15 * time.Second,
	}
}

// Database metric attribute keys
const (
	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.table")
	AttrDBState     = attribute.Key("db.pool.state")
)

// DBDurationBuckets are query latency buckets in seconds
var DBDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// DBMetrics records query counts, latency, slow queries and pool usage
type DBMetrics struct {
	poolConnections    metric.Int64Gauge
	poolConnectionsMax metric.Int64Gauge
	queryTotal         metric.Int64Counter
	queryDuration      metric.Float64Histogram
	slowQueryTotal     metric.Int64Counter

	config DBMetricsConfig
	logger *zap.Logger
	clock  clockwork.Clock
	sqlDB  *sql.DB

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the instruments on meter
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, clock clockwork.Clock, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{config: cfg, logger: logger, clock: clock, stopCh: make(chan struct{})}
	var errs []error
	gauge := func(name, desc string) metric.Int64Gauge {
		g, err := meter.Int64Gauge(name, metric.WithDescription(desc), metric.WithUnit("{connection}"))
		errs = append(errs, err)
		return g
	}
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{query}"))
		errs = append(errs, err)
		return c
	}
	m.poolConnections = gauge("db_pool_connections", "Connections in the pool by state")
	m.poolConnectionsMax = gauge("db_pool_connections_max", "Maximum open connections")
	m.queryTotal = counter("db_query_total", "Database statements by operation")
	m.slowQueryTotal = counter("db_slow_query_total", "Statements slower than the threshold by table")
	var err error
	m.queryDuration, err = meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Database statement latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DBDurationBuckets...))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("create database instruments: %w", err)
	}
	return m, nil
}

// RecordQuery records one finished statement
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, elapsed time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	op := metric.WithAttributes(AttrDBOperation.String(operation))
	m.queryTotal.Add(ctx, 1, op)
	m.queryDuration.Record(ctx, elapsed.Seconds(), op)

	if elapsed > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Add(ctx, 1, metric.WithAttributes(AttrDBTable.String(table)))
	}
}

// StartPoolStatsCollection samples sql.DB.Stats every PoolStatsInterval
// until Stop or ctx is done
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	if m.sqlDB == nil {
		m.logger.Warn("Pool stats collection needs a database handle")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := m.clock.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.Chan():
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	for state, n := range map[string]int{"idle": stats.Idle, "in_use": stats.InUse, "open": stats.OpenConnections} {
		m.poolConnections.Record(ctx, int64(n), metric.WithAttributes(AttrDBState.String(state)))
	}
}

// Stop ends pool stats collection. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string { return "db_metrics" }

// Initialize implements gorm.Plugin
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	return registerTimed(db, "db_metrics", false, m.clock, func(tx *gorm.DB, operation string, elapsed time.Duration) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		m.RecordQuery(ctx, operation, tx.Statement.Table, elapsed)
	})
}

// RegisterDBMetrics installs the metrics plugin on db. It returns nil
// without error when metrics are disabled or no meter provider is running.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, clock clockwork.Clock, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || mp == nil || !mp.IsEnabled() {
		return nil, nil
	}
	m, err := NewDBMetrics(mp.Meter("db.client"), cfg, clock, logger)
	if err != nil {
		return nil, err
	}
	if m.sqlDB, err = db.DB(); err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		return nil, err
	}
	m.logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", m.config.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", m.config.PoolStatsInterval),
	)
	return m, nil
}

// DBTracingConfig configures statement spans
type DBTracingConfig struct {
	DBName             string
	WithQueryVariables bool
	SlowQueryThreshold time.Duration
}

// RegisterDBTracing installs otelgorm on db and flags statement spans slower
// than the threshold with db.slow_query and a slow_query_warning event
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, clock clockwork.Clock, logger *zap.Logger) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.WithQueryVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := registerTimed(db, "db_tracing", true, clock, func(tx *gorm.DB, _ string, elapsed time.Duration) {
		markSlowQuery(tx, elapsed, cfg.SlowQueryThreshold)
	}); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("Database tracing enabled",
			zap.String("db_name", cfg.DBName),
			zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
		)
	}
	return nil
}

func markSlowQuery(tx *gorm.DB, elapsed, threshold time.Duration) {
	if elapsed <= threshold || tx.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	span.AddEvent("slow_query_warning", trace.WithAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.Int64("threshold_ms", threshold.Milliseconds()),
	))
}
