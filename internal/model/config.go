package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address (host:port).
	Addr string `mapstructure:"addr" yaml:"addr"`

	// SchedulerToken authenticates the external scheduler on the
	// job-trigger endpoints. Requests without it are rejected.
	SchedulerToken string `mapstructure:"scheduler_token" yaml:"scheduler_token"`
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PushConfig holds settings for the external push transport.
type PushConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
}

// AIConfig holds settings for the summarization service.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `mapstructure:"api_key_env" yaml:"api_key_env"`
}

// DigestConfig holds digest generation settings.
type DigestConfig struct {
	// FreshnessHours is the window during which an existing digest is
	// considered current and regeneration is suppressed.
	FreshnessHours int `mapstructure:"freshness_hours" yaml:"freshness_hours"`

	// MorningHour and AfternoonHour are the local-time hours of the
	// two scheduled slots, used for client display only.
	MorningHour   int `mapstructure:"morning_hour" yaml:"morning_hour"`
	AfternoonHour int `mapstructure:"afternoon_hour" yaml:"afternoon_hour"`

	// ActivityLimit caps how many activity entries feed one digest.
	ActivityLimit int `mapstructure:"activity_limit" yaml:"activity_limit"`
}

// DispatchConfig bounds the pipeline's worker pools.
type DispatchConfig struct {
	ReminderWorkers int `mapstructure:"reminder_workers" yaml:"reminder_workers"`
	DigestWorkers   int `mapstructure:"digest_workers" yaml:"digest_workers"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Timezone is the platform's configured local time zone (IANA
	// name). Digest day windows are computed in this zone so "today"
	// matches what a human considers today regardless of server zone.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	Push     PushConfig     `mapstructure:"push" yaml:"push"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Digest   DigestConfig   `mapstructure:"digest" yaml:"digest"`
	Dispatch DispatchConfig `mapstructure:"dispatch" yaml:"dispatch"`
}

// Location resolves the configured time zone, defaulting to UTC when
// the name is empty.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskboard", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "taskboard.db"},
		Timezone: "UTC",
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 2048,
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Digest: DigestConfig{
			FreshnessHours: 12,
			MorningHour:    5,
			AfternoonHour:  16,
			ActivityLimit:  50,
		},
		Dispatch: DispatchConfig{
			ReminderWorkers: 8,
			DigestWorkers:   4,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "taskboard.db")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("ai.model", "claude-sonnet-4-20250514")
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.api_key_env", "ANTHROPIC_API_KEY")
	v.SetDefault("digest.freshness_hours", 12)
	v.SetDefault("digest.morning_hour", 5)
	v.SetDefault("digest.afternoon_hour", 16)
	v.SetDefault("digest.activity_limit", 50)
	v.SetDefault("dispatch.reminder_workers", 8)
	v.SetDefault("dispatch.digest_workers", 4)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("database", cfg.Database)
	v.Set("timezone", cfg.Timezone)
	v.Set("push", cfg.Push)
	v.Set("ai", cfg.AI)
	v.Set("digest", cfg.Digest)
	v.Set("dispatch", cfg.Dispatch)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
