package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type widget struct {
	ID   uint
	Name string
}

// openTestDB opens a migrated sqlite file; the plugins under test are
// registered afterwards so migration statements are not counted
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "telemetry.db")
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func countsByAttr(sum metricdata.Sum[int64], key attribute.Key) map[string]int64 {
	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(key)
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM clients":           "SELECT",
		"  insert into notes values (1)":  "INSERT",
		"UPDATE documents SET status = 1": "UPDATE",
		"delete from beneficiaries":       "DELETE",
		"PRAGMA foreign_keys = ON":        "OTHER",
		"":                                "OTHER",
	}
	for query, want := range tests {
		assert.Equal(t, want, detectOperationType(query), query)
	}
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := openTestDB(t)
	disabled, err := NewMeterProvider(context.Background(), MetricsConfig{}, nil)
	require.NoError(t, err)

	m, err := RegisterDBMetrics(db, disabled, DefaultDBMetricsConfig(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = RegisterDBMetrics(db, nil, DefaultDBMetricsConfig(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDBMetrics_CountsStatements(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	db := openTestDB(t)

	m, err := RegisterDBMetrics(db, mp, DefaultDBMetricsConfig(), clockwork.NewFakeClock(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, m)

	require.NoError(t, db.Create(&widget{Name: "kit"}).Error)
	var found []widget
	require.NoError(t, db.Find(&found).Error)
	require.NoError(t, db.Exec("DELETE FROM widgets").Error)

	sum, ok := collectMetric(t, reader, "db_query_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := countsByAttr(sum, AttrDBOperation)
	assert.Equal(t, int64(1), counts["INSERT"])
	assert.Equal(t, int64(1), counts["SELECT"])
	assert.Equal(t, int64(1), counts["DELETE"])
}

func TestDBMetrics_SlowQuery(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	m, err := NewDBMetrics(mp.Meter("db.client"), DBMetricsConfig{SlowQueryThreshold: 100 * time.Millisecond}, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordQuery(ctx, "select", "clients", 50*time.Millisecond)
	m.RecordQuery(ctx, "select", "clients", 300*time.Millisecond)
	m.RecordQuery(ctx, "update", "", time.Second)

	sum, ok := collectMetric(t, reader, "db_slow_query_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, map[string]int64{"clients": 1, "unknown": 1}, countsByAttr(sum, AttrDBTable))
}

func TestDBMetrics_LatencyBuckets(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	m, err := NewDBMetrics(mp.Meter("db.client"), DefaultDBMetricsConfig(), nil, nil)
	require.NoError(t, err)

	m.RecordQuery(context.Background(), "select", "clients", 150*time.Millisecond)

	hist, ok := collectMetric(t, reader, "db_query_duration_seconds").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	assert.InDelta(t, 0.15, dp.Sum, 1e-9)
	assert.Equal(t, DBDurationBuckets, dp.Bounds)
	op, _ := dp.Attributes.Value(AttrDBOperation)
	assert.Equal(t, "SELECT", op.AsString())
}

func TestDBMetrics_PoolStats(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	db := openTestDB(t)
	clock := clockwork.NewFakeClock()

	m, err := RegisterDBMetrics(db, mp, DBMetricsConfig{Enabled: true, PoolStatsInterval: time.Minute}, clock, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.StartPoolStatsCollection(ctx)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	m.Stop()
	m.Stop()

	gauge, ok := collectMetric(t, reader, "db_pool_connections").Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	states := map[string]bool{}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(AttrDBState)
		states[v.AsString()] = true
	}
	assert.Equal(t, map[string]bool{"idle": true, "in_use": true, "open": true}, states)
}

func TestRegisterDBTracing_MarksSlowStatements(t *testing.T) {
	_, sr := newTestTracerProvider(t, 1)
	db := openTestDB(t)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		DBName:             "telemetry.db",
		SlowQueryThreshold: time.Nanosecond,
	}, nil, nil))

	require.NoError(t, db.Create(&widget{Name: "kit"}).Error)

	var create sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() == "gorm.Create" {
			create = s
		}
	}
	require.NotNil(t, create, "statement span not recorded")

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range create.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.Equal(t, "widgets", attrs["db.sql.table"].AsString())

	var events []string
	for _, e := range create.Events() {
		events = append(events, e.Name)
	}
	assert.Contains(t, events, "slow_query_warning")
}
