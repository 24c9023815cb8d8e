package ports

import (
	"context"
	"log/slog"

	"github.com/dblab-dev/dblab/internal/domain/entities"
	"github.com/dblab-dev/dblab/internal/domain/values"
)

// EngineContext carries what an engine action may use.
type EngineContext struct {
	Config   *entities.ResolvedConfig
	Metadata *entities.EngineMetadata
	Runtime  ContainerRuntime
	Logger   *slog.Logger

	// Expand expands {dotted.key} style placeholders against Config.
	Expand func(string) string
}

// Engine is a database engine. Engines implement any of Upper, Downer,
// StatusReporter and Destroyer; actions they do not implement fall back to
// the shared container implementation.
type Engine interface {
	Name() string
}

// Upper brings an instance up.
type Upper interface {
	Up(ctx context.Context, ec *EngineContext) error
}

// Downer stops an instance without removing its data.
type Downer interface {
	Down(ctx context.Context, ec *EngineContext) error
}

// StatusReporter observes the live status of an instance.
type StatusReporter interface {
	Status(ctx context.Context, ec *EngineContext) (values.InstanceStatus, error)
}

// Destroyer removes everything an instance created outside its document.
type Destroyer interface {
	Destroy(ctx context.Context, ec *EngineContext) error
}
