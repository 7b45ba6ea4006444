// Package statedir provides constants and utilities for the .todos directory structure.
package statedir

import "path/filepath"

const (
	// Dir is the name of the project-local state directory.
	Dir = ".todos"

	// AppName is the name used for user-level config and data directories.
	AppName = "todos"

	// DefaultConfigFile is the default config file name (inside .todos).
	DefaultConfigFile = "todos.toml"

	// DefaultDataDir is the directory holding key-value slots (inside .todos).
	DefaultDataDir = "data"

	// DefaultKey is the fixed key the task list snapshot is stored under.
	DefaultKey = "todos"
)

// ConfigPath returns the full path to the config file within a work directory.
func ConfigPath(workDir string) string {
	return joinPath(workDir, DefaultConfigFile)
}

// DataPath returns the full path to the data directory within a work directory.
func DataPath(workDir string) string {
	return joinPath(workDir, DefaultDataDir)
}

// DirPath returns the full path to the .todos directory within a work directory.
func DirPath(workDir string) string {
	if workDir == "." || workDir == "" {
		return Dir
	}
	return filepath.Join(workDir, Dir)
}

func joinPath(workDir, file string) string {
	return filepath.Join(DirPath(workDir), file)
}
