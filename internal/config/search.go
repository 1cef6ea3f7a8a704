package config

import (
	"fmt"
	"os"
)

// DefaultSearchPaths is the ordered list of config file paths to try.
var DefaultSearchPaths = []string{
	"./hwmond.toml",
	"/etc/hwmond/hwmond.toml",
	"/etc/hwmond.toml",
}

// Resolve finds the config file path by checking, in order:
//  1. Explicit path from -c flag (if non-empty)
//  2. HWMOND_CONFIG environment variable
//  3. DefaultSearchPaths
//
// An explicit or environment path must exist. When nothing in the default
// search exists Resolve returns "" and a nil error; the caller then runs
// with built-in defaults.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("cannot read config: %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if env := os.Getenv("HWMOND_CONFIG"); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("cannot read config: %s: %w", env, err)
		}
		return env, nil
	}

	for _, p := range DefaultSearchPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// LoadResolved resolves the config path and loads it. With no config file
// found it returns the defaults and a "" path.
func LoadResolved(explicit string) (*Config, string, []string, error) {
	path, err := Resolve(explicit)
	if err != nil {
		return nil, "", nil, err
	}
	if path == "" {
		return Default(), "", nil, nil
	}
	cfg, warnings, err := Load(path)
	if err != nil {
		return nil, path, warnings, err
	}
	return cfg, path, warnings, nil
}
