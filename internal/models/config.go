package models

// ConfigError represents a configuration validation error
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
	// ServerURL is the relay's own public base URL, embedded in the
	// provider callback and provisioning templates.
	ServerURL string `json:"server_url"`
}

type ProviderConfig struct {
	APIBaseURL string `json:"api_base_url"`
	TimeoutSec int    `json:"timeout_sec"`
}

type PushGatewayConfig struct {
	APIBaseURL string `json:"api_base_url"`
	TimeoutSec int    `json:"timeout_sec"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type RegistryConfig struct {
	// Backend selects the token store implementation: "redis" or "sqlite".
	Backend           string       `json:"backend"`
	Redis             RedisConfig  `json:"redis"`
	SQLite            SQLiteConfig `json:"sqlite"`
	EncryptionEnabled bool         `json:"encryption_enabled"`
}

type RetryConfig struct {
	InitialBackoffMs int `json:"initial_backoff_ms"`
	MaxBackoffMs     int `json:"max_backoff_ms"`
}

type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	UseStdout      bool    `json:"use_stdout"`
}

type Config struct {
	Server      ServerConfig      `json:"server"`
	Provider    ProviderConfig    `json:"provider"`
	PushGateway PushGatewayConfig `json:"push_gateway"`
	Registry    RegistryConfig    `json:"registry"`
	Retry       RetryConfig       `json:"retry"`
	Tracing     TracingConfig     `json:"tracing"`
	LogLevel    string            `json:"log_level"`
}
