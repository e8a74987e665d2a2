// internal/config/config.go
package config

type Config struct {
	Bridge  BridgeConfig  `yaml:"bridge"`
	Link    LinkConfig    `yaml:"link"`
	Startup StartupConfig `yaml:"startup"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Modbus  ModbusConfig  `yaml:"modbus"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

// ---- BRIDGE ----

type BridgeConfig struct {
	DeviceType     string `yaml:"device_type"` // table key or AUTO
	PollIntervalMs int    `yaml:"poll_interval_ms"`
	DedupWindowMs  int    `yaml:"dedup_window_ms"` // 0 = default, < 0 = off
	MaxLineLength  int    `yaml:"max_line_length"`

	// Single in-flight request discipline (opt-in).
	InflightGate      bool `yaml:"inflight_gate"`
	ResponseTimeoutMs int  `yaml:"response_timeout_ms"`

	SkipAfterFunctionChange bool `yaml:"skip_after_function_change"`
	OfflineAfterMisses      int  `yaml:"offline_after_misses"` // 0 disables
}

// ---- LINK ----

type LinkConfig struct {
	// Exactly one of Device (serial port path) or Endpoint (tcp://host:port).
	Device   string `yaml:"device"`
	Baud     int    `yaml:"baud"`
	Endpoint string `yaml:"endpoint"`

	ReadTimeoutMs int `yaml:"read_timeout_ms"`
	DialTimeoutMs int `yaml:"dial_timeout_ms"`
}

// ---- STARTUP ----

type StartupConfig struct {
	IdleTimeoutMs     int `yaml:"idle_timeout_ms"`
	IdentifyTimeoutMs int `yaml:"identify_timeout_ms"`
	SettleMs          int `yaml:"settle_ms"`
	CommandDelayMs    int `yaml:"command_delay_ms"`
}

// ---- TRANSPORTS ----

type MQTTConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Broker             string `yaml:"broker"`
	ClientID           string `yaml:"client_id"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	TopicPrefix        string `yaml:"topic_prefix"`
	QoS                byte   `yaml:"qos"`
	HeartbeatIntervalS int    `yaml:"heartbeat_interval_s"`
	ConnectTimeoutMs   int    `yaml:"connect_timeout_ms"`
}

type ModbusConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	UnitID      uint8  `yaml:"unit_id"`
	BaseAddress uint16 `yaml:"base_address"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}

type HTTPConfig struct {
	Listen    string `yaml:"listen"`
	Metrics   bool   `yaml:"metrics"`
	Websocket bool   `yaml:"websocket"`
}

// ---- LOG ----

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // json | text
	Output   string `yaml:"output"` // stdout | file
	FilePath string `yaml:"file_path"`
}
