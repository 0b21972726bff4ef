package config

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Station       StationConfig       `mapstructure:"station"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Push          PushConfig          `mapstructure:"push"`
	Scanner       ScannerConfig       `mapstructure:"scanner"`
	Dispense      DispenseConfig      `mapstructure:"dispense"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	Alert         AlertConfig         `mapstructure:"alert"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	CORS           CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// StationConfig identifies this kiosk against the dispensing backend.
type StationConfig struct {
	MachineID string `mapstructure:"machine_id"`
}

type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type PushConfig struct {
	URL                 string `mapstructure:"url"`
	ReconnectAttempts   int    `mapstructure:"reconnect_attempts"`
	ReconnectDelayMS    int    `mapstructure:"reconnect_delay_ms"`
	PongTimeoutSeconds  int    `mapstructure:"pong_timeout_seconds"`
	HandshakeTimeoutSec int    `mapstructure:"handshake_timeout_seconds"`
}

type ScannerConfig struct {
	// Device is the path of the keyboard-wedge stream, e.g. "/dev/ttyACM0".
	// Empty means no hardware source; codes arrive via the local API only.
	Device        string `mapstructure:"device"`
	MaxCodeLength int    `mapstructure:"max_code_length"`
}

type DispenseConfig struct {
	DebounceWindowMS int `mapstructure:"debounce_window_ms"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type CatalogConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type AlertConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	From    string   `mapstructure:"from"`
	To      []string `mapstructure:"to"`
	// FailureThreshold is the number of consecutive remote-sync failures
	// before an operator alert is sent.
	FailureThreshold int        `mapstructure:"failure_threshold"`
	SMTP             SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/station.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return ErrMissingBackendURL
	}
	if c.Alert.Enabled && len(c.Alert.To) == 0 {
		return ErrMissingAlertRecipient
	}
	return nil
}
