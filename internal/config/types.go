package config

import (
	"time"

	"github.com/nibzard/todos-go/internal/statedir"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
}

// Default values.
const (
	DefaultStorageDriver       = "file"
	DefaultStorageKey          = statedir.DefaultKey
	DefaultMySQLTimeoutSeconds = 5
	DefaultLogLevel            = "warn"
	DefaultLogFormat           = "text"
)

// Config holds the full configuration for todos.
type Config struct {
	// Storage
	StorageDriver string `toml:"storage_driver"`
	DataDir       string `toml:"data_dir"`
	StorageKey    string `toml:"storage_key"`
	SchemaFile    string `toml:"schema_file"`

	// MySQL driver
	MySQLDSN            string `toml:"mysql_dsn"`
	MySQLTimeoutSeconds int    `toml:"mysql_timeout_seconds"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`

	// Config files that were read, in load order (computed)
	Files []string `toml:"-"`
}

// MySQLTimeout returns the per-call database timeout.
func (c *Config) MySQLTimeout() time.Duration {
	if c.MySQLTimeoutSeconds <= 0 {
		return DefaultMySQLTimeoutSeconds * time.Second
	}
	return time.Duration(c.MySQLTimeoutSeconds) * time.Second
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"storage_driver",
		"data_dir",
		"storage_key",
		"schema_file",
		"mysql_dsn",
		"mysql_timeout_seconds",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// Fields returns the configurable field names in display order.
func Fields() []string {
	return configFields()
}
