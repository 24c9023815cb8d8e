package services

import (
	"sync"

	"github.com/dblab-dev/dblab/internal/application/ports"
)

// EngineRegistry maps engine names to their implementations. Engines
// without a registration run as plain containers.
type EngineRegistry struct {
	engines map[string]ports.Engine
	mu      sync.RWMutex
}

// NewEngineRegistry creates a registry holding engines.
func NewEngineRegistry(engines ...ports.Engine) *EngineRegistry {
	r := &EngineRegistry{engines: make(map[string]ports.Engine)}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

// Register adds or replaces an engine.
func (r *EngineRegistry) Register(e ports.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Name()] = e
}

// Get returns the engine registered under name, or a container engine.
func (r *EngineRegistry) Get(name string) ports.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.engines[name]; ok {
		return e
	}
	return NewContainerEngine(name)
}

// Actions resolves the four lifecycle actions of an engine, falling back
// to the container implementation for each one the engine lacks.
type Actions struct {
	Upper          ports.Upper
	Downer         ports.Downer
	StatusReporter ports.StatusReporter
	Destroyer      ports.Destroyer
}

// ActionsFor returns the lifecycle actions of the named engine.
func (r *EngineRegistry) ActionsFor(name string) Actions {
	e := r.Get(name)
	fallback := NewContainerEngine(name)

	a := Actions{
		Upper:          fallback,
		Downer:         fallback,
		StatusReporter: fallback,
		Destroyer:      fallback,
	}
	if v, ok := e.(ports.Upper); ok {
		a.Upper = v
	}
	if v, ok := e.(ports.Downer); ok {
		a.Downer = v
	}
	if v, ok := e.(ports.StatusReporter); ok {
		a.StatusReporter = v
	}
	if v, ok := e.(ports.Destroyer); ok {
		a.Destroyer = v
	}
	return a
}
