// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/tejzpr/hippocampus/internal/database"
	"gorm.io/gorm/logger"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".hippocampus/configs"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.json"
	// DefaultDBPath is the default SQLite database, relative to the home directory
	DefaultDBPath = ".hippocampus/db/hippocampus.db"
	// Version is reported by the MCP server
	Version = "0.1.0"
)

// Load reads configuration from ~/.hippocampus/configs/config.json
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(configPath)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			return loadFromDefaults(v)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "Hippocampus")
	v.SetDefault("server.version", Version)

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	homeDir, _ := os.UserHomeDir()
	v.SetDefault("database.sqlite_path", filepath.Join(homeDir, DefaultDBPath))
	v.SetDefault("database.max_connections", database.DefaultMaxOpenConns)
	v.SetDefault("database.idle_timeout_seconds", int(database.DefaultConnMaxIdleTime/time.Second))
	v.SetDefault("database.timeout_seconds", 30)
	v.SetDefault("database.log_level", LogLevelSilent)

	// Retention defaults
	v.SetDefault("retention.low_days", 30)
	v.SetDefault("retention.medium_days", 90)
	v.SetDefault("retention.superseded_days", 30)
	v.SetDefault("retention.tool_calls_days", 14)
	v.SetDefault("retention.turns_days", 30)
	v.SetDefault("retention.sessions_days", 90)

	// Search defaults
	v.SetDefault("search.default_limit", 30)
	v.SetDefault("search.context_limit", 10)
	v.SetDefault("search.recent_limit", 10)
	v.SetDefault("search.superseded_limit", 50)

	v.SetDefault("maintenance.interval_minutes", 0)
	v.SetDefault("maintenance.lease_minutes", 10)
}

// loadFromDefaults creates a config from default values
func loadFromDefaults(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	// Validate database type
	if cfg.Database.Type != "sqlite" && cfg.Database.Type != "postgres" {
		return fmt.Errorf("database.type must be 'sqlite' or 'postgres', got '%s'", cfg.Database.Type)
	}

	// Validate database connection info
	if cfg.Database.Type == "sqlite" && cfg.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required when type is 'sqlite'")
	}
	if cfg.Database.Type == "postgres" && cfg.Database.PostgresDSN == "" {
		return fmt.Errorf("database.postgres_dsn is required when type is 'postgres'")
	}

	if cfg.Database.MaxConnections < 1 {
		return fmt.Errorf("database.max_connections must be at least 1, got %d", cfg.Database.MaxConnections)
	}
	if cfg.Database.TimeoutSeconds < 0 {
		return fmt.Errorf("database.timeout_seconds must not be negative, got %d", cfg.Database.TimeoutSeconds)
	}
	if !isValidType(cfg.Database.LogLevel, ValidLogLevels()) {
		return fmt.Errorf("database.log_level must be one of %v, got '%s'", ValidLogLevels(), cfg.Database.LogLevel)
	}

	retention := map[string]int{
		"retention.low_days":        cfg.Retention.LowDays,
		"retention.medium_days":     cfg.Retention.MediumDays,
		"retention.superseded_days": cfg.Retention.SupersededDays,
		"retention.tool_calls_days": cfg.Retention.ToolCallsDays,
		"retention.turns_days":      cfg.Retention.TurnsDays,
		"retention.sessions_days":   cfg.Retention.SessionsDays,
	}
	for key, days := range retention {
		if days < 0 {
			return fmt.Errorf("%s must not be negative, got %d", key, days)
		}
	}

	if cfg.Search.DefaultLimit < 1 {
		return fmt.Errorf("search.default_limit must be at least 1, got %d", cfg.Search.DefaultLimit)
	}

	if cfg.Maintenance.IntervalMinutes < 0 {
		return fmt.Errorf("maintenance.interval_minutes must not be negative, got %d", cfg.Maintenance.IntervalMinutes)
	}
	if cfg.Maintenance.IntervalMinutes > 0 && cfg.Maintenance.LeaseMinutes < 1 {
		return fmt.Errorf("maintenance.lease_minutes must be at least 1, got %d", cfg.Maintenance.LeaseMinutes)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Server: ServerConfig{
			Name:    "Hippocampus",
			Version: Version,
		},
		Database: DatabaseConfig{
			Type:               "sqlite",
			SQLitePath:         filepath.Join(homeDir, DefaultDBPath),
			MaxConnections:     database.DefaultMaxOpenConns,
			IdleTimeoutSeconds: int(database.DefaultConnMaxIdleTime / time.Second),
			TimeoutSeconds:     30,
			LogLevel:           LogLevelSilent,
		},
		Retention: RetentionConfig{
			LowDays:        30,
			MediumDays:     90,
			SupersededDays: 30,
			ToolCallsDays:  14,
			TurnsDays:      30,
			SessionsDays:   90,
		},
		Search: SearchConfig{
			DefaultLimit:    30,
			ContextLimit:    10,
			RecentLimit:     10,
			SupersededLimit: 50,
		},
		Maintenance: MaintenanceConfig{
			LeaseMinutes: 10,
		},
	}
}

// DatabaseConfig converts the database section into connection settings
func (c *Config) DatabaseConfig() *database.Config {
	return &database.Config{
		Type:            c.Database.Type,
		SQLitePath:      c.Database.SQLitePath,
		PostgresDSN:     c.Database.PostgresDSN,
		LogLevel:        gormLogLevel(c.Database.LogLevel),
		MaxOpenConns:    c.Database.MaxConnections,
		ConnMaxIdleTime: time.Duration(c.Database.IdleTimeoutSeconds) * time.Second,
	}
}

// OperationTimeout is the deadline applied to each engine operation
func (c *Config) OperationTimeout() time.Duration {
	return time.Duration(c.Database.TimeoutSeconds) * time.Second
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case LogLevelError:
		return logger.Error
	case LogLevelWarn:
		return logger.Warn
	case LogLevelInfo:
		return logger.Info
	default:
		return logger.Silent
	}
}
