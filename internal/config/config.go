// Package config loads pgdeck settings from defaults, an optional .env file
// and PGDECK_-prefixed environment variables, in increasing precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names: PGDECK_SERVER_PORT -> server_port.
const EnvPrefix = "PGDECK_"

// Config holds the application configuration.
type Config struct {
	// AppEnv is the running environment (development/production).
	AppEnv string `koanf:"app_env"`
	// ServerPort is the HTTP port to listen on.
	ServerPort string `koanf:"server_port"`
	// AllowedOrigins is a list of CORS allowed domains.
	AllowedOrigins []string `koanf:"allowed_origins"`
	// APISecret is the shared secret for HMAC-SHA256 request signing.
	// Empty disables signature checks.
	APISecret string `koanf:"api_secret"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// WorkerCount is the number of invocation workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds invocations waiting for a worker.
	QueueSize int `koanf:"queue_size"`
	// MaxDBConcurrency restricts the number of concurrently open database sessions.
	MaxDBConcurrency int64 `koanf:"max_db_concurrency"`
	// ReadOnly rejects statements that could modify the database.
	ReadOnly bool `koanf:"read_only"`
	// QualifiedColumnLookup filters column lookups by schema as well as table.
	QualifiedColumnLookup bool `koanf:"qualified_column_lookup"`
	// ShutdownTimeout is the budget for draining HTTP requests on shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"app_env":                 "development",
		"server_port":             "8080",
		"allowed_origins":         "*",
		"api_secret":              "",
		"log_level":               "info",
		"worker_count":            4,
		"queue_size":              64,
		"max_db_concurrency":      8,
		"read_only":               false,
		"qualified_column_lookup": false,
		"shutdown_timeout":        "10s",
	}
}

// Load reads configuration. envFiles are passed to godotenv; a missing file is
// not an error. Variables already in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1, got %d", c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", c.QueueSize)
	}
	if c.MaxDBConcurrency < 1 {
		return fmt.Errorf("max_db_concurrency must be at least 1, got %d", c.MaxDBConcurrency)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", name, err)
	}
	return level, nil
}
