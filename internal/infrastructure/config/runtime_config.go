package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dblab-dev/dblab/internal/infrastructure/system"
)

// RuntimeConfig is the effective global configuration of one invocation,
// after flags and environment have been applied over the config file.
type RuntimeConfig struct {
	Redaction       system.RedactionConfig
	DataRoot        string
	EnginesDir      string
	Runtime         string
	EnvFiles        []string
	ListConcurrency int
}

// FromSystemConfig creates RuntimeConfig from system config.
func FromSystemConfig(sys *system.Config) *RuntimeConfig {
	return &RuntimeConfig{
		Redaction:       sys.Redaction,
		DataRoot:        sys.DataRoot,
		EnginesDir:      sys.EnginesDir,
		Runtime:         sys.Runtime,
		EnvFiles:        append([]string(nil), sys.EnvFiles...),
		ListConcurrency: sys.ListConcurrency,
	}
}

// ApplyDefaults fills zero values and expands a leading "~" in paths.
func (r *RuntimeConfig) ApplyDefaults() {
	if r.DataRoot == "" {
		r.DataRoot = DefaultDataRoot()
	}
	r.DataRoot = expandHome(r.DataRoot)
	r.EnginesDir = expandHome(r.EnginesDir)
	for i, f := range r.EnvFiles {
		r.EnvFiles[i] = expandHome(f)
	}
	if r.Runtime == "" {
		r.Runtime = "auto"
	}
	if r.ListConcurrency <= 0 {
		r.ListConcurrency = runtime.NumCPU()
	}
}

// DefaultDataRoot is $XDG_DATA_HOME/dblab, or ~/.local/share/dblab.
func DefaultDataRoot() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "dblab")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dblab"
	}
	return filepath.Join(home, ".local", "share", "dblab")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
