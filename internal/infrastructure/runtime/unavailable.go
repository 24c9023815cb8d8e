package runtime

import (
	"context"

	"github.com/dblab-dev/dblab/internal/application/ports"
)

// Unavailable stands in for a container runtime that could not be
// detected. Every call reports the detection error, so commands that never
// reach the runtime keep working.
type Unavailable struct {
	Err error
}

var _ ports.ContainerRuntime = Unavailable{}

func (u Unavailable) RunContainer(context.Context, ports.ContainerSpec) error { return u.Err }
func (u Unavailable) StartContainer(context.Context, string) error            { return u.Err }
func (u Unavailable) StopContainer(context.Context, string) error             { return u.Err }
func (u Unavailable) RemoveContainer(context.Context, string) error           { return u.Err }
func (u Unavailable) CreateNetwork(context.Context, string) error             { return u.Err }
func (u Unavailable) RemoveNetwork(context.Context, string) error             { return u.Err }

func (u Unavailable) InspectContainer(context.Context, string) (*ports.ContainerState, error) {
	return nil, u.Err
}

func (u Unavailable) InspectNetwork(context.Context, string) (bool, error) {
	return false, u.Err
}
