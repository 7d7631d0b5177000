// Package config loads extbuild's user configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds extbuild defaults. Command-line flags override every field.
type Config struct {
	CC        string            `yaml:"cc"`
	BuildDir  string            `yaml:"build_dir"`
	Python    string            `yaml:"python"`
	ExtSuffix string            `yaml:"ext_suffix"`
	Verbose   bool              `yaml:"verbose"`
	Env       map[string]string `yaml:"env"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		BuildDir: "build",
		Env:      make(map[string]string),
	}
}

// DefaultPath returns $HOME/.config/extbuild/config.yaml, or an empty string
// when the home directory is unknown.
func DefaultPath() string {
	if path := os.Getenv("EXTBUILD_CONFIG"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "extbuild", "config.yaml")
}

// LoadConfig loads configuration from file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return DefaultConfig(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Env == nil {
		cfg.Env = make(map[string]string)
	}

	return cfg, nil
}
