// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort    = 8080
	defaultServerHost    = "0.0.0.0"
	defaultReadTimeout   = 30 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultDatabasePath  = "./data/reeldeck.db"
	defaultLogLevel      = "info"
	defaultLogPretty     = false
	defaultProviderBase  = "https://api.themoviedb.org/3"
	defaultProviderTO    = 15 * time.Second
	defaultProviderCache = 2 * time.Minute
	defaultRemoteTO      = 15 * time.Second

	defaultQueueMaxAutoPages = 5
	defaultQueueLowWaterMark = 5
	defaultQueueRefillTarget = 5
	defaultQueueDebounce     = 300 * time.Millisecond
	defaultUndoCapacity      = 10
	defaultSyncSchedule      = "0 * * * *" // hourly pull refresh of followed lists

	envPrefix = "REELDECK"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Provider ProviderConfig
	Remote   RemoteConfig
	Queue    QueueConfig
	Sync     SyncConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// ProviderConfig holds content provider API configuration
type ProviderConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RemoteConfig holds remote list store configuration
type RemoteConfig struct {
	BaseURL     string
	WSBaseURL   string
	UserID      string
	DisplayName string
	Timeout     time.Duration
}

// QueueConfig holds content queue engine tuning
type QueueConfig struct {
	MaxAutoPages     int
	LowWaterMark     int
	RefillTarget     int
	DebounceInterval time.Duration
	UndoCapacity     int
}

// SyncConfig holds remote sync engine configuration
type SyncConfig struct {
	RefreshSchedule string // cron expression for the pull-refresh fallback
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/reeldeck")

	// Environment variable settings
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	// Database defaults
	v.SetDefault("database.path", defaultDatabasePath)

	// Logging defaults
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	// Provider defaults
	v.SetDefault("provider.baseurl", defaultProviderBase)
	v.SetDefault("provider.timeout", defaultProviderTO)
	v.SetDefault("provider.cachettl", defaultProviderCache)

	// Remote list store defaults
	v.SetDefault("remote.timeout", defaultRemoteTO)

	// Queue engine defaults
	v.SetDefault("queue.maxautopages", defaultQueueMaxAutoPages)
	v.SetDefault("queue.lowwatermark", defaultQueueLowWaterMark)
	v.SetDefault("queue.refilltarget", defaultQueueRefillTarget)
	v.SetDefault("queue.debounceinterval", defaultQueueDebounce)
	v.SetDefault("queue.undocapacity", defaultUndoCapacity)

	// Sync defaults
	v.SetDefault("sync.refreshschedule", defaultSyncSchedule)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("invalid provider timeout: %v (must be > 0)", c.Provider.Timeout)
	}

	if c.Queue.MaxAutoPages < 1 {
		return fmt.Errorf("invalid queue max auto pages: %d (must be >= 1)", c.Queue.MaxAutoPages)
	}
	if c.Queue.LowWaterMark < 0 {
		return fmt.Errorf("invalid queue low water mark: %d (must be >= 0)", c.Queue.LowWaterMark)
	}
	if c.Queue.RefillTarget < 1 {
		return fmt.Errorf("invalid queue refill target: %d (must be >= 1)", c.Queue.RefillTarget)
	}
	if c.Queue.UndoCapacity < 1 {
		return fmt.Errorf("invalid undo capacity: %d (must be >= 1)", c.Queue.UndoCapacity)
	}

	// Provider API key and remote store URLs are validated where used so the
	// service can still start for local-only workflows.

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
