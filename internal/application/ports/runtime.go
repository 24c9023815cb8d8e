package ports

import "context"

// ContainerSpec describes a container to create and start.
type ContainerSpec struct {
	Env         map[string]string
	Name        string
	Image       string
	Network     string
	NetworkMode string
	Ports       []string
	Volumes     []string
	Labels      map[string]string
}

// ContainerState is what the runtime reports about a container.
type ContainerState struct {
	Name    string
	Status  string
	Exists  bool
	Running bool
}

// ContainerRuntime invokes the container runtime. Names are supplied by
// the caller; implementations do not derive them.
type ContainerRuntime interface {
	RunContainer(ctx context.Context, spec ContainerSpec) error
	StartContainer(ctx context.Context, name string) error
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
	InspectContainer(ctx context.Context, name string) (*ContainerState, error)
	CreateNetwork(ctx context.Context, name string) error
	RemoveNetwork(ctx context.Context, name string) error
	InspectNetwork(ctx context.Context, name string) (bool, error)
}
