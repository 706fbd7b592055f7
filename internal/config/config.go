package config

import "time"

// Config is the complete application configuration for the accord CLI and
// interactions server. The library core takes these values by injection; it
// never reads configuration itself.
type Config struct {
	Token     string `mapstructure:"token"`
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`

	// Timeout bounds each network attempt; Deadline bounds a whole call
	// including queueing and retries (0 = unbounded).
	Timeout  time.Duration `mapstructure:"timeout"`
	Deadline time.Duration `mapstructure:"deadline"`

	Retry   RetryConfig   `mapstructure:"retry"`
	Pace    PaceConfig    `mapstructure:"pace"`
	Routes  RoutesConfig  `mapstructure:"routes"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RetryConfig bounds retries for server and transport errors.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	Jitter      float64       `mapstructure:"jitter"`
}

// PaceConfig throttles outgoing dispatch ahead of the service's own limits.
type PaceConfig struct {
	// RequestsPerSecond of 0 disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`

	// MaxInflight caps simultaneous in-flight requests across all buckets;
	// 0 disables the cap.
	MaxInflight int64 `mapstructure:"max_inflight"`
}

// RoutesConfig points at an override for the embedded major-parameter table.
type RoutesConfig struct {
	TablePath string `mapstructure:"table_path"`
}

// StoreConfig configures the libsql database used to persist bucket state
// between CLI invocations.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// ServerConfig configures the interactions webhook receiver.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	PublicKey       string        `mapstructure:"public_key"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}
