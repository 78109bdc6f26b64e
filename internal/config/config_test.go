package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	return Load(fs, args)
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, 20777, cfg.TelemetryPort)
	assert.Equal(t, 5000, cfg.ServerPort)
	assert.Equal(t, 200*time.Millisecond, cfg.RefreshInterval())
	assert.Equal(t, 2, cfg.NumAdjacentCars)
	assert.Equal(t, CaptureDisabled, cfg.Capture())
	assert.Empty(t, cfg.ForwardEndpoints())
	assert.Equal(t, -1, cfg.UDPCustomActionCode)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	cfg, err := load(t,
		"-telemetry-port", "20888",
		"-refresh-interval", "100",
		"-packet-capture-mode", "enabled-with-autosave",
		"-forward", "127.0.0.1:20778, 10.0.0.2:20777",
	)
	require.NoError(t, err)

	assert.Equal(t, 20888, cfg.TelemetryPort)
	assert.Equal(t, 100*time.Millisecond, cfg.RefreshInterval())
	assert.Equal(t, CaptureWithAutosave, cfg.Capture())
	assert.Equal(t, []string{"127.0.0.1:20778", "10.0.0.2:20777"}, cfg.ForwardEndpoints())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"port out of range", []string{"-telemetry-port", "70000"}},
		{"zero refresh", []string{"-refresh-interval", "0"}},
		{"bad capture mode", []string{"-packet-capture-mode", "sometimes"}},
		{"forward without port", []string{"-forward", "localhost"}},
		{"zero adjacent cars", []string{"-num-adjacent-cars", "0"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestEnvDefaultsApply(t *testing.T) {
	t.Setenv("PITWALL_SERVER_PORT", "8123")
	t.Setenv("PITWALL_DEBUG", "true")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.ServerPort)
	assert.True(t, cfg.Debug)
}

func TestFlagBeatsEnv(t *testing.T) {
	t.Setenv("PITWALL_SERVER_PORT", "8123")
	cfg, err := load(t, "-server-port", "9000")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.ServerPort)
}
