package telemetry

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// DefaultProfileTypes is what the server collects when no types are configured
var DefaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// ProfilerConfig holds Pyroscope continuous profiling configuration
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	ServiceVersion    string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []pyroscope.ProfileType

	// Sampling rates applied to the runtime when mutex or block profiles are
	// requested. Zero means 5.
	MutexProfileFraction int
	BlockProfileRate     int
}

// Profiler owns a running Pyroscope session
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	config   ProfilerConfig

	mu      sync.Mutex
	stopped bool
}

// NewProfiler validates cfg and starts pushing profiles. A disabled config
// returns a profiler whose Stop is a no-op.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = DefaultProfileTypes
	}
	p := &Profiler{logger: logger, config: cfg}
	if !cfg.Enabled {
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, errors.New("profiler server address is required")
	}
	if cfg.ApplicationName == "" {
		return nil, errors.New("profiler application name is required")
	}

	applyRuntimeRates(cfg)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:              profileTags(cfg.ServiceVersion),
		ProfileTypes:      cfg.ProfileTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(cfg.ProfileTypes)),
	)
	return p, nil
}

func applyRuntimeRates(cfg ProfilerConfig) {
	if slices.Contains(cfg.ProfileTypes, pyroscope.ProfileMutexCount) ||
		slices.Contains(cfg.ProfileTypes, pyroscope.ProfileMutexDuration) {
		runtime.SetMutexProfileFraction(orDefault(cfg.MutexProfileFraction, 5))
	}
	if slices.Contains(cfg.ProfileTypes, pyroscope.ProfileBlockCount) ||
		slices.Contains(cfg.ProfileTypes, pyroscope.ProfileBlockDuration) {
		runtime.SetBlockProfileRate(orDefault(cfg.BlockProfileRate, 5))
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// profileTags are static labels on every profile of this process
func profileTags(version string) map[string]string {
	tags := map[string]string{}
	if version != "" {
		tags["version"] = version
	}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		tags["hostname"] = hostname
	}
	if pod := os.Getenv("POD_NAME"); pod != "" {
		tags["pod"] = pod
	}
	return tags
}

// Stop flushes pending profiles. Safe to call more than once.
// The Pyroscope SDK takes no context, so Stop may block on a slow server.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.profiler == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true

	if err := p.profiler.Stop(); err != nil {
		return fmt.Errorf("failed to stop profiler: %w", err)
	}
	p.logger.Info("Pyroscope profiler stopped")
	return nil
}

// IsEnabled reports whether profiles are being pushed
func (p *Profiler) IsEnabled() bool {
	return p.profiler != nil
}

// pyroscopeLogger routes Pyroscope's own logging through zap
type pyroscopeLogger struct {
	*zap.SugaredLogger
}

var _ pyroscope.Logger = pyroscopeLogger{}
