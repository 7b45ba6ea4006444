package config

import (
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from TODOS_* environment variables and
// updates source tracking.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	setString := func(env, field string, target *string) {
		if v := os.Getenv(env); v != "" {
			*target = v
			sources[field] = SourceEnv
		}
	}
	setBool := func(env, field string, target *bool) {
		if v := os.Getenv(env); v != "" {
			*target = boolFromString(v)
			sources[field] = SourceEnv
		}
	}

	setString("TODOS_STORAGE_DRIVER", "storage_driver", &cfg.StorageDriver)
	setString("TODOS_DATA_DIR", "data_dir", &cfg.DataDir)
	setString("TODOS_KEY", "storage_key", &cfg.StorageKey)
	setString("TODOS_SCHEMA", "schema_file", &cfg.SchemaFile)
	setString("TODOS_MYSQL_DSN", "mysql_dsn", &cfg.MySQLDSN)
	if v := os.Getenv("TODOS_MYSQL_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MySQLTimeoutSeconds = n
			sources["mysql_timeout_seconds"] = SourceEnv
		}
	}
	setString("TODOS_LOG_LEVEL", "log_level", &cfg.LogLevel)
	setString("TODOS_LOG_FORMAT", "log_format", &cfg.LogFormat)
	setBool("TODOS_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	setBool("TODOS_LOG_CALLER", "log_caller", &cfg.LogCaller)
}

func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
