package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// EnvPrefix is the namespace of every variable dblab reads from env-files
// and the process environment.
const EnvPrefix = "DBLAB_"

// EnvResolver turns env-files and process environment into the env layer.
type EnvResolver struct {
	logger  *slog.Logger
	environ func() []string
	prefix  string
}

// NewEnvResolver creates a resolver. environ supplies the process
// environment; nil means os.Environ.
func NewEnvResolver(logger *slog.Logger, environ func() []string) *EnvResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if environ == nil {
		environ = os.Environ
	}
	return &EnvResolver{
		logger:  logger,
		environ: environ,
		prefix:  EnvPrefix,
	}
}

// Raw merges the env-files in order (later files win) and overlays
// prefixed process variables, which win over every file.
func (r *EnvResolver) Raw(envFiles []string) (map[string]string, error) {
	raw := make(map[string]string)
	for _, path := range envFiles {
		vars, err := ParseEnvFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			if strings.HasPrefix(k, r.prefix) {
				raw[k] = v
			}
		}
	}

	for _, kv := range r.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, r.prefix) {
			raw[k] = v
		}
	}
	return raw, nil
}

// Resolve builds the env layer for meta: every raw variable that matches an
// env var descriptor by exact name is stored under the descriptor's internal
// key. Other variables are dropped. When two descriptors feed the same key
// the later declaration wins.
func (r *EnvResolver) Resolve(meta *entities.EngineMetadata, envFiles []string) (entities.FlatDocument, error) {
	raw, err := r.Raw(envFiles)
	if err != nil {
		return nil, err
	}

	out := entities.NewFlatDocument()
	for _, d := range meta.EnvVars {
		value, ok := raw[d.Name]
		if !ok || d.MapsTo == "" {
			continue
		}
		out[d.MapsTo] = value
	}

	r.logger.Debug("resolved environment layer",
		"engine", meta.Engine, "files", len(envFiles), "keys", len(out))
	return out, nil
}
