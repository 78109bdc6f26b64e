// Package config collects the process configuration from environment
// defaults and command-line flags. Flags win over environment variables,
// which win over the built-in defaults.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CaptureMode controls inbound packet capture to disk.
type CaptureMode string

const (
	CaptureDisabled     CaptureMode = "disabled"
	CaptureEnabled      CaptureMode = "enabled"
	CaptureWithAutosave CaptureMode = "enabled-with-autosave"
)

// Config is the full process configuration. Env vars use the PITWALL_ prefix
// (PITWALL_TELEMETRY_PORT, PITWALL_SERVER_PORT, ...).
type Config struct {
	TelemetryPort int    `envconfig:"TELEMETRY_PORT" default:"20777"`
	BindAddress   string `envconfig:"BIND_ADDRESS" default:"0.0.0.0"`
	ServerPort    int    `envconfig:"SERVER_PORT" default:"5000"`
	IPCPort       int    `envconfig:"IPC_PORT" default:"5002"`
	RecvBufBytes  int    `envconfig:"RECV_BUF_BYTES" default:"1048576"`

	PacketCaptureMode    string `envconfig:"PACKET_CAPTURE_MODE" default:"disabled"`
	CaptureDir           string `envconfig:"CAPTURE_DIR" default:"."`
	PostRaceDataAutosave bool   `envconfig:"POST_RACE_DATA_AUTOSAVE" default:"false"`
	ReplayServer         bool   `envconfig:"REPLAY_SERVER" default:"false"`

	RefreshIntervalMS  int    `envconfig:"REFRESH_INTERVAL" default:"200"`
	UDPCustomActionCode int   `envconfig:"UDP_CUSTOM_ACTION_CODE" default:"-1"`
	NumAdjacentCars    int    `envconfig:"NUM_ADJACENT_CARS" default:"2"`
	ForwardAddresses   string `envconfig:"FORWARD_ADDRESSES" default:""`

	// When true, fuel surplus uses the regression estimate instead of the
	// game-reported value.
	FuelRateFromRegression bool `envconfig:"FUEL_RATE_FROM_REGRESSION" default:"false"`

	DisableBrowserAutoload bool   `envconfig:"DISABLE_BROWSER_AUTOLOAD" default:"false"`
	LogFile                string `envconfig:"LOG_FILE" default:""`
	Debug                  bool   `envconfig:"DEBUG" default:"false"`
}

// Load resolves configuration: env defaults first, then flags on top.
// The flag set is registered against fs so tests can supply their own.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("pitwall", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment config: %w", err)
	}

	fs.IntVar(&cfg.TelemetryPort, "telemetry-port", cfg.TelemetryPort, "UDP port the game sends telemetry to")
	fs.StringVar(&cfg.BindAddress, "bind-address", cfg.BindAddress, "Address to bind the telemetry socket on")
	fs.IntVar(&cfg.ServerPort, "server-port", cfg.ServerPort, "HTTP/WebSocket server port")
	fs.IntVar(&cfg.IPCPort, "ipc-port", cfg.IPCPort, "Loopback port for the overlay IPC bus")
	fs.IntVar(&cfg.RecvBufBytes, "recv-buf", cfg.RecvBufBytes, "UDP receive buffer size in bytes")
	fs.StringVar(&cfg.PacketCaptureMode, "packet-capture-mode", cfg.PacketCaptureMode,
		"Packet capture: disabled, enabled or enabled-with-autosave")
	fs.StringVar(&cfg.CaptureDir, "capture-dir", cfg.CaptureDir, "Directory for packet captures and session archives")
	fs.BoolVar(&cfg.PostRaceDataAutosave, "post-race-data-autosave", cfg.PostRaceDataAutosave,
		"Write the archived race model as JSON on session end")
	fs.BoolVar(&cfg.ReplayServer, "replay-server", cfg.ReplayServer,
		"Serve a TCP replay listener instead of binding the UDP telemetry socket")
	fs.IntVar(&cfg.RefreshIntervalMS, "refresh-interval", cfg.RefreshIntervalMS, "Broadcast cadence in milliseconds")
	fs.IntVar(&cfg.UDPCustomActionCode, "udp-custom-action-code", cfg.UDPCustomActionCode,
		"Game action code that injects a custom marker (-1 disables)")
	fs.IntVar(&cfg.NumAdjacentCars, "num-adjacent-cars", cfg.NumAdjacentCars, "Pace comparator window size")
	fs.StringVar(&cfg.ForwardAddresses, "forward", cfg.ForwardAddresses,
		"Comma-separated host:port list to forward raw telemetry to")
	fs.BoolVar(&cfg.FuelRateFromRegression, "fuel-rate-from-regression", cfg.FuelRateFromRegression,
		"Compute fuel surplus laps from the regression estimate instead of the game value")
	fs.BoolVar(&cfg.DisableBrowserAutoload, "disable-browser-autoload", cfg.DisableBrowserAutoload,
		"Do not open the dashboard in a browser on startup")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Redirect logs to this file")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.TelemetryPort < 1 || c.TelemetryPort > 65535 {
		return fmt.Errorf("telemetry-port must be 1-65535, got %d", c.TelemetryPort)
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server-port must be 1-65535, got %d", c.ServerPort)
	}
	if c.IPCPort < 1 || c.IPCPort > 65535 {
		return fmt.Errorf("ipc-port must be 1-65535, got %d", c.IPCPort)
	}
	if c.RefreshIntervalMS < 10 {
		return fmt.Errorf("refresh-interval must be at least 10ms, got %d", c.RefreshIntervalMS)
	}
	if c.NumAdjacentCars < 1 {
		return fmt.Errorf("num-adjacent-cars must be at least 1, got %d", c.NumAdjacentCars)
	}
	switch CaptureMode(c.PacketCaptureMode) {
	case CaptureDisabled, CaptureEnabled, CaptureWithAutosave:
	default:
		return fmt.Errorf("packet-capture-mode must be one of disabled, enabled, enabled-with-autosave; got %q",
			c.PacketCaptureMode)
	}
	for _, addr := range c.ForwardEndpoints() {
		if !strings.Contains(addr, ":") {
			return fmt.Errorf("forward endpoint %q must be host:port", addr)
		}
	}
	return nil
}

// RefreshInterval returns the broadcast cadence as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// ForwardEndpoints splits the configured forward list, dropping empty entries.
func (c *Config) ForwardEndpoints() []string {
	if c.ForwardAddresses == "" {
		return nil
	}
	parts := strings.Split(c.ForwardAddresses, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Capture returns the parsed capture mode.
func (c *Config) Capture() CaptureMode {
	return CaptureMode(c.PacketCaptureMode)
}
