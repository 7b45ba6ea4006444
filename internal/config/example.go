package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todos configuration file
# Values can be overridden by TODOS_* environment variables or CLI flags

# Storage driver: file, memory or mysql
storage_driver = "file"

# Directory for the file driver (default: .todos/data in the project root)
# data_dir = "~/.local/share/todos"

# Key the task list is stored under
storage_key = "todos"

# JSON Schema overriding the built-in snapshot schema
# schema_file = "todos.schema.json"

# MySQL driver settings
# mysql_dsn = "user:pass@tcp(127.0.0.1:3306)/todos"
# mysql_timeout_seconds = 5

# Logging
log_level = "warn"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
