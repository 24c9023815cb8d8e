// Package system provides infrastructure for system-level configuration:
// the global dblab config file (~/.config/dblab/config.yaml).
package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Config represents the global configuration file. Flags and DBLAB_*
// environment variables override it.
type Config struct {
	Redaction RedactionConfig `yaml:"redaction"`

	// DataRoot holds one directory per engine and instance
	DataRoot string `yaml:"data_root"`

	// EnginesDir overrides the bundled engine metadata
	EnginesDir string `yaml:"engines_dir"`

	// Runtime is "docker", "podman" or "auto"
	Runtime string `yaml:"runtime"`

	// EnvFiles are read before any --env-file given on the command line
	EnvFiles []string `yaml:"env_files"`

	// ListConcurrency bounds parallel document reads in `dblab list`
	ListConcurrency int `yaml:"list_concurrency"`
}

// RedactionConfig configures how sensitive data is sanitized.
type RedactionConfig struct {
	HashMode HashModeConfig `yaml:"hash_mode"`
	Patterns []string       `yaml:"patterns"`
	Paths    []string       `yaml:"paths"`
}

// HashModeConfig controls hash-based redaction.
type HashModeConfig struct {
	Salt    string `yaml:"salt"`
	Enabled bool   `yaml:"enabled"`
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultConfig returns a Config with defaults for all fields.
// This is used when no system config file exists.
func DefaultConfig() *Config {
	return &Config{
		Redaction: RedactionConfig{
			Patterns: []string{},
			Paths:    []string{},
		},
		Runtime:  "auto",
		EnvFiles: []string{},
	}
}

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".dblab", "config.yaml")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "dblab", "config.yaml")
}

// Load loads the system configuration from the specified path.
// If the file does not exist, returns DefaultConfig().
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is user-provided config file, validated to exist above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}

	return config, nil
}
