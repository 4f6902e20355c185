package telemetry

import (
	"sync"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.Equal(t, DefaultProfileTypes, p.config.ProfileTypes)
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProfilerConfig
		want string
	}{
		{"missing address", ProfilerConfig{Enabled: true, ApplicationName: "backoffice"}, "server address"},
		{"missing name", ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, "application name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProfiler(tt.cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProfiler_StopIsIdempotent(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Stop())
		}()
	}
	wg.Wait()
	assert.True(t, p.stopped)
}

func TestProfileTags(t *testing.T) {
	t.Setenv("HOSTNAME", "api-1")
	t.Setenv("POD_NAME", "")

	assert.Equal(t, map[string]string{"version": "0.4.0", "hostname": "api-1"}, profileTags("0.4.0"))
	assert.Equal(t, map[string]string{"hostname": "api-1"}, profileTags(""))
}

func TestProfilerConfig_KeepsExplicitTypes(t *testing.T) {
	types := []pyroscope.ProfileType{pyroscope.ProfileCPU}
	p, err := NewProfiler(ProfilerConfig{ProfileTypes: types}, nil)
	require.NoError(t, err)
	assert.Equal(t, types, p.config.ProfileTypes)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 5, orDefault(0, 5))
	assert.Equal(t, 5, orDefault(-1, 5))
	assert.Equal(t, 10, orDefault(10, 5))
}
