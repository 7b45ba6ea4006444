package config

import "flag"

// parseFlags defines global flags on fs, parses args and updates source
// tracking for every flag that was set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("todos", flag.ContinueOnError)
	}

	// Storage
	fs.StringVar(&cfg.StorageDriver, "driver", cfg.StorageDriver, "Storage driver (file, memory, mysql)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for the file driver")
	fs.StringVar(&cfg.StorageKey, "key", cfg.StorageKey, "Key the task list is stored under")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "JSON Schema file overriding the built-in snapshot schema")
	fs.StringVar(&cfg.MySQLDSN, "mysql-dsn", cfg.MySQLDSN, "MySQL data source name for the mysql driver")
	fs.IntVar(&cfg.MySQLTimeoutSeconds, "mysql-timeout", cfg.MySQLTimeoutSeconds, "MySQL per-call timeout (seconds)")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	flagToSource := map[string]string{
		"driver":         "storage_driver",
		"data-dir":       "data_dir",
		"key":            "storage_key",
		"schema":         "schema_file",
		"mysql-dsn":      "mysql_dsn",
		"mysql-timeout":  "mysql_timeout_seconds",
		"log-level":      "log_level",
		"log-format":     "log_format",
		"log-timestamps": "log_timestamps",
		"log-caller":     "log_caller",
	}
	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagToSource[f.Name]; ok {
			sources[field] = SourceFlag
		}
	})
	return nil
}
