package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Preview   PreviewConfig
	Storage   StorageConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// PreviewConfig holds preview pipeline timing configuration.
type PreviewConfig struct {
	DebounceMS     int `envconfig:"PREVIEW_DEBOUNCE_MS" default:"500"`
	EditDebounceMS int `envconfig:"EDIT_DEBOUNCE_MS" default:"300"`
	WatchdogMS     int `envconfig:"PREVIEW_WATCHDOG_MS" default:"3000"`
	ConsoleCap     int `envconfig:"CONSOLE_CAP" default:"100"`
}

// Debounce returns the rebuild debounce window as a duration.
func (p PreviewConfig) Debounce() time.Duration {
	return time.Duration(p.DebounceMS) * time.Millisecond
}

// EditDebounce returns the keystroke coalescing window as a duration.
func (p PreviewConfig) EditDebounce() time.Duration {
	return time.Duration(p.EditDebounceMS) * time.Millisecond
}

// Watchdog returns the execution watchdog window as a duration.
func (p PreviewConfig) Watchdog() time.Duration {
	return time.Duration(p.WatchdogMS) * time.Millisecond
}

// StorageConfig holds workspace persistence configuration.
type StorageConfig struct {
	Dir             string `envconfig:"STORAGE_DIR" default:"./data"`
	TemplatesDir    string `envconfig:"TEMPLATES_DIR" default:"./templates"`
	MaxFileBytes    int    `envconfig:"MAX_FILE_BYTES" default:"1048576"`
	MaxProjectBytes int    `envconfig:"MAX_PROJECT_BYTES" default:"10485760"`
	AutosaveMS      int    `envconfig:"AUTOSAVE_MS" default:"1000"`
}

// Autosave returns the autosave debounce window as a duration.
func (s StorageConfig) Autosave() time.Duration {
	return time.Duration(s.AutosaveMS) * time.Millisecond
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Preview: PreviewConfig{
			DebounceMS:     500,
			EditDebounceMS: 300,
			WatchdogMS:     3000,
			ConsoleCap:     100,
		},
		Storage: StorageConfig{
			Dir:             "./data",
			TemplatesDir:    "./templates",
			MaxFileBytes:    1 << 20,
			MaxProjectBytes: 10 << 20,
			AutosaveMS:      1000,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
