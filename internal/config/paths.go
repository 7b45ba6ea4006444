package config

import (
	"os"
	"path/filepath"
	"strings"
)

// resolvePath turns a configured path into an absolute one. A leading ~ is
// the user's home directory and $VAR or ${VAR} references are expanded;
// references to unset variables are left in place. Relative results are
// joined onto root.
func resolvePath(root, p string) string {
	if p == "" {
		return p
	}
	p = expandHome(os.Expand(p, lookupEnvKeep))
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// lookupEnvKeep expands a variable. Unset variables stay as ${NAME}.
func lookupEnvKeep(name string) string {
	if val, ok := os.LookupEnv(name); ok {
		return val
	}
	return "${" + name + "}"
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
