package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override file configuration.
const (
	EnvAPIURL   = "SONAR_API_URL"
	EnvLogLevel = "SONAR_LOG_LEVEL"
	EnvPlayer   = "SONAR_PLAYER"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	Player  PlayerConfig  `toml:"player"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig contains settings for the recommendation service client.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MaxRetries        int     `toml:"max_retries"`
	RetryBackoffMS    int     `toml:"retry_backoff_ms"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Timeout returns the request timeout as a [time.Duration].
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the base retry backoff as a [time.Duration].
func (c APIConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// SessionConfig contains session controller defaults.
type SessionConfig struct {
	PageSize       int     `toml:"page_size"`
	RecommendLimit int     `toml:"recommend_limit"`
	Volume         float64 `toml:"volume"`
	DiscardStale   bool    `toml:"discard_stale"`
}

// PlayerConfig selects the playback backend.
type PlayerConfig struct {
	Backend string `toml:"backend"`
	MPVPath string `toml:"mpv_path"`
}

// LogConfig contains log level and file rotation settings.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate rejects values the session controller cannot work with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	if c.Session.PageSize <= 0 {
		return fmt.Errorf("%w: session.page_size must be positive", ErrInvalidConfig)
	}
	if c.Session.RecommendLimit <= 0 {
		return fmt.Errorf("%w: session.recommend_limit must be positive", ErrInvalidConfig)
	}
	if c.Session.Volume < 0 || c.Session.Volume > 1 {
		return fmt.Errorf("%w: session.volume must be within [0, 1]", ErrInvalidConfig)
	}
	switch c.Player.Backend {
	case "mpv", "none":
	default:
		return fmt.Errorf("%w: unknown player backend %q", ErrInvalidConfig, c.Player.Backend)
	}
	return nil
}

// ApplyEnv loads a .env file (when present) and applies SONAR_* overrides.
//
// Variables already set in the process environment take precedence over .env entries.
func (c *Config) ApplyEnv(envFiles ...string) {
	_ = godotenv.Load(envFiles...)

	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPlayer)); v != "" {
		c.Player.Backend = v
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
