// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// MinLineLength is the smallest accepted framer bound.
// A standard *IDN? reply must fit.
const MinLineLength = 64

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "warning": true, "error": true,
	"fatal": true, "panic": true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ------------------------------------------------------------
	// BRIDGE
	// ------------------------------------------------------------

	b := cfg.Bridge
	if b.PollIntervalMs <= 0 {
		return fmt.Errorf("bridge: poll_interval_ms must be > 0, got %d", b.PollIntervalMs)
	}
	if b.MaxLineLength < MinLineLength {
		return fmt.Errorf("bridge: max_line_length must be >= %d, got %d", MinLineLength, b.MaxLineLength)
	}
	if b.InflightGate && b.ResponseTimeoutMs <= 0 {
		return fmt.Errorf("bridge: inflight_gate requires response_timeout_ms > 0")
	}
	if b.OfflineAfterMisses < 0 {
		return fmt.Errorf("bridge: offline_after_misses must be >= 0, got %d", b.OfflineAfterMisses)
	}

	// ------------------------------------------------------------
	// LINK (exactly one of device / endpoint)
	// ------------------------------------------------------------

	l := cfg.Link
	switch {
	case l.Device == "" && l.Endpoint == "":
		return fmt.Errorf("link: one of device or endpoint is required")
	case l.Device != "" && l.Endpoint != "":
		return fmt.Errorf("link: device %q and endpoint %q are mutually exclusive", l.Device, l.Endpoint)
	case l.Device != "" && l.Baud <= 0:
		return fmt.Errorf("link: baud must be > 0 for serial device %q", l.Device)
	case l.Endpoint != "" && !strings.HasPrefix(l.Endpoint, "tcp://"):
		return fmt.Errorf("link: endpoint %q must use tcp://host:port", l.Endpoint)
	}
	if l.ReadTimeoutMs <= 0 {
		return fmt.Errorf("link: read_timeout_ms must be > 0")
	}

	// ------------------------------------------------------------
	// STARTUP
	// ------------------------------------------------------------

	s := cfg.Startup
	if s.IdleTimeoutMs <= 0 || s.IdentifyTimeoutMs <= 0 || s.SettleMs < 0 || s.CommandDelayMs < 0 {
		return fmt.Errorf("startup: timeouts must be positive")
	}

	// ------------------------------------------------------------
	// TRANSPORTS
	// ------------------------------------------------------------

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt: broker is required when enabled")
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
		}
	}

	if cfg.Modbus.Enabled && cfg.Modbus.Endpoint == "" {
		return fmt.Errorf("modbus: endpoint is required when enabled")
	}

	if (cfg.HTTP.Metrics || cfg.HTTP.Websocket) && cfg.HTTP.Listen == "" {
		return fmt.Errorf("http: listen is required when metrics or websocket is enabled")
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if !logLevels[cfg.Log.Level] {
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("log: format must be json or text, got %q", cfg.Log.Format)
	}
	if cfg.Log.Output == "file" && cfg.Log.FilePath == "" {
		return fmt.Errorf("log: file_path is required for file output")
	}

	return nil
}
