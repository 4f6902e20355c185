package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// captureProcessor keeps every emitted record
type captureProcessor struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (p *captureProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r.Clone())
	return nil
}

func (p *captureProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool { return true }
func (p *captureProcessor) Shutdown(context.Context) error                         { return nil }
func (p *captureProcessor) ForceFlush(context.Context) error                       { return nil }

func (p *captureProcessor) bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func newTestLoggerProvider(t *testing.T) (*LoggerProvider, *captureProcessor) {
	t.Helper()
	original := global.GetLoggerProvider()
	t.Cleanup(func() { global.SetLoggerProvider(original) })

	res, err := serviceResource("backoffice-test", "")
	require.NoError(t, err)
	capture := &captureProcessor{}
	lp := (&LoggerProvider{logger: zaptest.NewLogger(t)}).install(capture, res)
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })
	return lp, capture
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	disabled, err := NewLoggerProvider(context.Background(), LogsConfig{}, nil)
	require.NoError(t, err)

	for name, lp := range map[string]*LoggerProvider{"nil": nil, "disabled": disabled} {
		t.Run(name, func(t *testing.T) {
			core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "backoffice", LoggerProvider: lp})
			assert.False(t, core.Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestNewZapOTELCore_ForwardsAtOrAboveLevel(t *testing.T) {
	lp, capture := newTestLoggerProvider(t)
	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "backoffice",
		LoggerProvider: lp,
		Level:          zapcore.WarnLevel,
	})
	logger := zap.New(core)

	logger.Info("Import finished")
	logger.Warn("Reminder overdue", zap.Uint("client_id", 7))
	logger.Error("Packet build failed")

	assert.Equal(t, []string{"Reminder overdue", "Packet build failed"}, capture.bodies())

	capture.mu.Lock()
	defer capture.mu.Unlock()
	assert.Equal(t, log.SeverityWarn, capture.records[0].Severity())
}

func TestNewZapOTELCore_ChildKeepsLevel(t *testing.T) {
	lp, capture := newTestLoggerProvider(t)
	core := NewZapOTELCore(ZapBridgeConfig{LoggerProvider: lp, Level: zapcore.ErrorLevel})

	logger := zap.New(core.With([]zapcore.Field{zap.String("job", "reminder-digest")}))
	logger.Warn("dropped")
	logger.Error("kept")
	assert.Equal(t, []string{"kept"}, capture.bodies())
}

func TestNewZapOTELCore_DebugForwardsEverything(t *testing.T) {
	lp, capture := newTestLoggerProvider(t)
	logger := zap.New(NewZapOTELCore(ZapBridgeConfig{LoggerProvider: lp, Level: zapcore.DebugLevel}))

	logger.Debug("row parsed")
	logger.Info("import finished")
	assert.Equal(t, []string{"row parsed", "import finished"}, capture.bodies())
}
