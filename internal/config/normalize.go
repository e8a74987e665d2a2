// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize for zero values.
// A negative dedup_window_ms disables dedup.
const (
	DefaultDeviceType        = "AUTO"
	DefaultPollIntervalMs    = 100
	DefaultDedupWindowMs     = 20
	DefaultMaxLineLength     = 256
	DefaultResponseTimeoutMs = 1000
	DefaultBaud              = 115200
	DefaultReadTimeoutMs     = 10
	DefaultDialTimeoutMs     = 5000
	DefaultIdleTimeoutMs     = 2000
	DefaultIdentifyTimeoutMs = 1000
	DefaultSettleMs          = 200
	DefaultCommandDelayMs    = 200
	DefaultTopicPrefix       = "xdm1041"
	DefaultClientID          = "dmm-bridge"
	DefaultHeartbeatS        = 60
	DefaultConnectTimeoutMs  = 30000
	DefaultModbusTimeoutMs   = 2000
	DefaultModbusUnitID      = 1
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultLogOutput         = "stdout"
)

// Normalize applies defaults and canonical casing.
// It is allowed to mutate configuration.
// It MUST be called before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Bridge
	b.DeviceType = strings.ToUpper(strings.TrimSpace(b.DeviceType))
	if b.DeviceType == "" {
		b.DeviceType = DefaultDeviceType
	}
	setDefault(&b.PollIntervalMs, DefaultPollIntervalMs)
	setDefault(&b.DedupWindowMs, DefaultDedupWindowMs)
	setDefault(&b.MaxLineLength, DefaultMaxLineLength)
	setDefault(&b.ResponseTimeoutMs, DefaultResponseTimeoutMs)

	l := &cfg.Link
	l.Device = strings.TrimSpace(l.Device)
	l.Endpoint = strings.TrimSpace(l.Endpoint)
	if l.Device != "" {
		setDefault(&l.Baud, DefaultBaud)
	}
	setDefault(&l.ReadTimeoutMs, DefaultReadTimeoutMs)
	setDefault(&l.DialTimeoutMs, DefaultDialTimeoutMs)

	s := &cfg.Startup
	setDefault(&s.IdleTimeoutMs, DefaultIdleTimeoutMs)
	setDefault(&s.IdentifyTimeoutMs, DefaultIdentifyTimeoutMs)
	setDefault(&s.SettleMs, DefaultSettleMs)
	setDefault(&s.CommandDelayMs, DefaultCommandDelayMs)

	m := &cfg.MQTT
	m.TopicPrefix = strings.Trim(strings.TrimSpace(m.TopicPrefix), "/")
	if m.TopicPrefix == "" {
		m.TopicPrefix = DefaultTopicPrefix
	}
	if m.ClientID == "" {
		m.ClientID = DefaultClientID
	}
	setDefault(&m.HeartbeatIntervalS, DefaultHeartbeatS)
	setDefault(&m.ConnectTimeoutMs, DefaultConnectTimeoutMs)

	mb := &cfg.Modbus
	setDefault(&mb.TimeoutMs, DefaultModbusTimeoutMs)
	if mb.UnitID == 0 {
		mb.UnitID = DefaultModbusUnitID
	}

	lg := &cfg.Log
	lg.Level = strings.ToLower(strings.TrimSpace(lg.Level))
	if lg.Level == "" {
		lg.Level = DefaultLogLevel
	}
	if lg.Format == "" {
		lg.Format = DefaultLogFormat
	}
	if lg.Output == "" {
		lg.Output = DefaultLogOutput
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
