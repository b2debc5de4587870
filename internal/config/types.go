// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Retention   RetentionConfig   `mapstructure:"retention"`
	Search      SearchConfig      `mapstructure:"search"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig identifies the MCP server
type ServerConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Type               string `mapstructure:"type"` // "sqlite" or "postgres"
	SQLitePath         string `mapstructure:"sqlite_path"`
	PostgresDSN        string `mapstructure:"postgres_dsn"`
	MaxConnections     int    `mapstructure:"max_connections"`
	IdleTimeoutSeconds int    `mapstructure:"idle_timeout_seconds"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"` // per operation, pool wait included
	LogLevel           string `mapstructure:"log_level"`       // "silent", "error", "warn", "info"
}

// RetentionConfig holds the age thresholds, in days, used by pruning
type RetentionConfig struct {
	LowDays        int `mapstructure:"low_days"`
	MediumDays     int `mapstructure:"medium_days"`
	SupersededDays int `mapstructure:"superseded_days"`
	ToolCallsDays  int `mapstructure:"tool_calls_days"`
	TurnsDays      int `mapstructure:"turns_days"`
	SessionsDays   int `mapstructure:"sessions_days"`
}

// SearchConfig holds default result limits
type SearchConfig struct {
	DefaultLimit    int `mapstructure:"default_limit"`
	ContextLimit    int `mapstructure:"context_limit"`
	RecentLimit     int `mapstructure:"recent_limit"`
	SupersededLimit int `mapstructure:"superseded_limit"`
}

// MaintenanceConfig controls the background retention job
type MaintenanceConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"` // 0 disables the job
	LeaseMinutes    int `mapstructure:"lease_minutes"`
}

// Log levels accepted by database.log_level
const (
	LogLevelSilent = "silent"
	LogLevelError  = "error"
	LogLevelWarn   = "warn"
	LogLevelInfo   = "info"
)

// ValidLogLevels returns all valid database log levels
func ValidLogLevels() []string {
	return []string{LogLevelSilent, LogLevelError, LogLevelWarn, LogLevelInfo}
}

// isValidType is a generic helper to check if a type is in a list of valid types
func isValidType(aType string, validTypes []string) bool {
	for _, valid := range validTypes {
		if aType == valid {
			return true
		}
	}
	return false
}
