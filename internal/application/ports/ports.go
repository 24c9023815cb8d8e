// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"

	"github.com/dblab-dev/dblab/internal/application/dto"
	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// MetadataRepository loads engine metadata documents.
type MetadataRepository interface {
	// Load reads and decodes the metadata of engine.
	Load(engine string) (*entities.EngineMetadata, error)

	// Engines lists the engines with a metadata document.
	Engines() ([]string, error)
}

// EnvironmentResolver turns env-files and the process environment into
// internal configuration keys.
type EnvironmentResolver interface {
	Resolve(meta *entities.EngineMetadata, envFiles []string) (entities.FlatDocument, error)
}

// ConfigInterpolator expands placeholders in resolved values.
type ConfigInterpolator interface {
	// Interpolate rewrites every value of doc in place.
	Interpolate(doc entities.FlatDocument)

	// ExpandString expands the placeholders of s against doc.
	ExpandString(s string, doc entities.FlatDocument) string
}

// InstanceStore persists instance documents.
type InstanceStore interface {
	Exists(engine, instance string) bool
	Read(engine, instance string) (*entities.InstanceRecord, error)

	// CreateInitial writes the document of a new instance. It reports false
	// without touching anything when the document already exists.
	CreateInitial(cfg *entities.ResolvedConfig, fixedFields []string) (bool, error)

	UpdateState(engine, instance, key, value string) error
	SetRuntime(engine, instance, key, value string) error
	UnsetRuntime(engine, instance, key string) (bool, error)
	List() ([]entities.InstanceRef, error)
	Remove(engine, instance string) error
}

// SQLExecutor runs SQL script files against a SQLite database file.
type SQLExecutor interface {
	// ExecFiles executes each file as one script, in order. It returns the
	// number of files executed before the first failure.
	ExecFiles(ctx context.Context, dbPath string, files []string) (int, error)
}

// DotEnvLoader loads a .env file into the process environment without
// replacing variables that are already set.
type DotEnvLoader interface {
	// Load reports false when path does not exist.
	Load(path string) (bool, error)
}

// ReportFormatter writes a validation report in one output format.
type ReportFormatter interface {
	Format(report *dto.ValidationReport) error
}

// FormatterOptions tunes report formatters.
type FormatterOptions struct {
	// MetadataPath is the engine metadata file the rules came from
	MetadataPath string

	// Indent pretty-prints JSON output
	Indent bool

	// Color enables ANSI colors in table output
	Color bool
}
