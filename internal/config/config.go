// Package config provides configuration for the mnemo memory core.
// Settings load from environment variables with the MNEMO_ prefix, with an
// optional YAML file underneath: defaults < file < environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the memory core.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Window  WindowConfig  `yaml:"window"`
	Tokens  TokensConfig  `yaml:"tokens"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	// Engine is the backend type: sqlite, postgres, or none (in-memory only).
	// Env var: MNEMO_STORAGE_ENGINE (default: sqlite)
	Engine string `yaml:"engine"`

	// DataPath is the directory holding the sqlite database file.
	// Env var: MNEMO_DATA_PATH (default: ./data)
	DataPath string `yaml:"data_path"`

	// PostgresDSN is the connection string when Engine is postgres.
	// Env var: MNEMO_POSTGRES_DSN
	PostgresDSN string `yaml:"postgres_dsn"`
}

// WindowConfig parameterizes context windows.
type WindowConfig struct {
	// DefaultMaxTokens is the token budget for windows created without an
	// explicit budget.
	// Env var: MNEMO_WINDOW_MAX_TOKENS (default: 128000)
	DefaultMaxTokens int `yaml:"default_max_tokens"`

	// AutoCreate controls what Append does when no window exists for the
	// key: false drops the message with a warning, true creates a window
	// with defaults first.
	// Env var: MNEMO_WINDOW_AUTO_CREATE (default: false)
	AutoCreate bool `yaml:"auto_create"`
}

// TokensConfig selects the token estimator.
type TokensConfig struct {
	// Estimator is "heuristic" or "tiktoken".
	// Env var: MNEMO_TOKEN_ESTIMATOR (default: heuristic)
	Estimator string `yaml:"estimator"`

	// Encoding is the BPE encoding name for the tiktoken estimator.
	// Env var: MNEMO_TOKEN_ENCODING (default: cl100k_base)
	Encoding string `yaml:"encoding"`
}

// BreakerConfig parameterizes the storage circuit breaker.
type BreakerConfig struct {
	// Enabled wraps the persistence port in a circuit breaker.
	// Env var: MNEMO_BREAKER_ENABLED (default: true)
	Enabled bool `yaml:"enabled"`

	// MaxFailures is the consecutive-failure count that trips the circuit.
	// Env var: MNEMO_BREAKER_MAX_FAILURES (default: 3)
	MaxFailures int `yaml:"max_failures"`

	// TimeoutSeconds is how long the circuit stays open before half-open.
	// Env var: MNEMO_BREAKER_TIMEOUT_SECONDS (default: 30)
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		Window: WindowConfig{
			DefaultMaxTokens: 128000,
			AutoCreate:       false,
		},
		Tokens: TokensConfig{
			Estimator: "heuristic",
			Encoding:  "cl100k_base",
		},
		Breaker: BreakerConfig{
			Enabled:        true,
			MaxFailures:    3,
			TimeoutSeconds: 30,
		},
	}
}

// Load builds the configuration from defaults and environment variables.
// When MNEMO_CONFIG_FILE is set, that YAML file is applied between the two.
func Load() (*Config, error) {
	return LoadFromFile(os.Getenv("MNEMO_CONFIG_FILE"))
}

// LoadFromFile builds the configuration from defaults, the given YAML file
// (skipped when path is empty), and environment variables, in that
// precedence order.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: postgres engine requires MNEMO_POSTGRES_DSN")
	}
	switch c.Tokens.Estimator {
	case "heuristic", "tiktoken":
	default:
		return fmt.Errorf("config: unknown token estimator %q", c.Tokens.Estimator)
	}
	if c.Window.DefaultMaxTokens <= 0 {
		return fmt.Errorf("config: window max tokens must be positive, got %d", c.Window.DefaultMaxTokens)
	}
	// The breaker takes unsigned thresholds; a negative here would wrap.
	if c.Breaker.MaxFailures < 0 {
		return fmt.Errorf("config: breaker max failures must not be negative, got %d", c.Breaker.MaxFailures)
	}
	if c.Breaker.TimeoutSeconds < 0 {
		return fmt.Errorf("config: breaker timeout must not be negative, got %d", c.Breaker.TimeoutSeconds)
	}
	return nil
}

// applyEnv overlays MNEMO_* environment variables onto c.
func (c *Config) applyEnv() {
	c.Storage.Engine = getEnv("MNEMO_STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.DataPath = getEnv("MNEMO_DATA_PATH", c.Storage.DataPath)
	c.Storage.PostgresDSN = getEnv("MNEMO_POSTGRES_DSN", c.Storage.PostgresDSN)

	c.Window.DefaultMaxTokens = getEnvInt("MNEMO_WINDOW_MAX_TOKENS", c.Window.DefaultMaxTokens)
	c.Window.AutoCreate = getEnvBool("MNEMO_WINDOW_AUTO_CREATE", c.Window.AutoCreate)

	c.Tokens.Estimator = getEnv("MNEMO_TOKEN_ESTIMATOR", c.Tokens.Estimator)
	c.Tokens.Encoding = getEnv("MNEMO_TOKEN_ENCODING", c.Tokens.Encoding)

	c.Breaker.Enabled = getEnvBool("MNEMO_BREAKER_ENABLED", c.Breaker.Enabled)
	c.Breaker.MaxFailures = getEnvInt("MNEMO_BREAKER_MAX_FAILURES", c.Breaker.MaxFailures)
	c.Breaker.TimeoutSeconds = getEnvInt("MNEMO_BREAKER_TIMEOUT_SECONDS", c.Breaker.TimeoutSeconds)
}

// SQLitePath returns the sqlite database file path under DataPath.
func (c *Config) SQLitePath() string {
	return c.Storage.DataPath + "/mnemo.db"
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false.
// If the environment variable exists but cannot be parsed, it returns the
// default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
