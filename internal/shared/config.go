package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Planner  PlannerConfig  `toml:"planner"`
	Auth     AuthConfig     `toml:"auth"`
	Geocoder GeocoderConfig `toml:"geocoder"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
}

// PlannerConfig points at the remote planning API.
type PlannerConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	LoginURL       string `toml:"login_url" validate:"required,url"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=0"`
}

// Timeout returns the HTTP client timeout. Zero leaves the client default in place.
func (c PlannerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthConfig controls where the planner token is kept between CLI invocations.
type AuthConfig struct {
	TokenPath string `toml:"token_path"`
}

// ResolveTokenPath returns the configured token path or ~/.opskit/token.json.
func (c AuthConfig) ResolveTokenPath() (string, error) {
	if c.TokenPath != "" {
		return c.TokenPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".opskit", "token.json"), nil
}

// GeocoderConfig contains reverse geocoding settings (Nominatim compatible).
type GeocoderConfig struct {
	URL           string  `toml:"url" validate:"required,url"`
	UserAgent     string  `toml:"user_agent" validate:"required"`
	Language      string  `toml:"language"`
	RatePerSecond float64 `toml:"rate_per_second" validate:"gte=0"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"gte=0"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port" validate:"gte=0,lte=65535"`
	LoginRatePerMinute int    `toml:"login_rate_per_minute" validate:"gte=0"`
	SessionIdleMinutes int    `toml:"session_idle_minutes" validate:"gte=0"`
}

// Addr joins host and port for [net/http.Server].
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionIdle is how long an unused dashboard session is kept.
func (c ServerConfig) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn error fatal"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ValidateStruct(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
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

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
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
