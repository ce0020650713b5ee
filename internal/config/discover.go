package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the environment variable that pins the config file.
const EnvConfig = "REQARR_CONFIG"

// DefaultPath is where `reqarr init` writes the config:
// $XDG_CONFIG_HOME/reqarr/config.toml, falling back to ~/.config.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./reqarr.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "reqarr", "config.toml")
}

// SearchPaths lists the files Discover tries when REQARR_CONFIG is unset.
func SearchPaths() []string {
	return []string{
		"./reqarr.toml",
		"./config.toml",
		DefaultPath(),
		"/etc/reqarr/config.toml",
	}
}

// NotFoundError is returned by Discover when no candidate file exists.
type NotFoundError struct {
	Checked []string
}

func (e *NotFoundError) Error() string {
	return "no reqarr config found, checked: " + strings.Join(e.Checked, ", ")
}

// Discover returns the config file reqarrd should load: REQARR_CONFIG if set
// (it must exist), otherwise the first of SearchPaths that does.
func Discover() (string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, envPath, err)
		}
		return envPath, nil
	}

	paths := SearchPaths()
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", &NotFoundError{Checked: paths}
}
