package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/application/ports"
	domainservices "github.com/dblab-dev/dblab/internal/domain/services"
	"github.com/dblab-dev/dblab/internal/domain/values"
)

// Configuration keys read by the container engine.
const (
	KeyContainerName = "container.name"
	KeyImage         = "image"
	KeyNetworkName   = "network.name"
	KeyStorageData   = "storage.data"
)

// Labels put on every container dblab creates.
const (
	LabelEngine   = "dev.dblab.engine"
	LabelInstance = "dev.dblab.instance"
)

// ContainerEngine is the shared implementation of every lifecycle action
// for engines that run as a single container. It also serves as the
// fallback for engines that implement only some actions.
type ContainerEngine struct {
	name string
}

// NewContainerEngine creates a container engine named name.
func NewContainerEngine(name string) *ContainerEngine {
	return &ContainerEngine{name: name}
}

// Name returns the engine name.
func (e *ContainerEngine) Name() string { return e.name }

// ContainerName returns the container name of the resolved instance.
func ContainerName(ec *ports.EngineContext) string {
	if name := ec.Config.Get(KeyContainerName); name != "" {
		return name
	}
	return fmt.Sprintf("dblab-%s-%s", ec.Config.Ref.Engine, ec.Config.Ref.Instance)
}

// BuildContainerSpec derives the container to run from the resolved
// configuration and the engine's container template.
func BuildContainerSpec(ec *ports.EngineContext) ports.ContainerSpec {
	cfg := ec.Config
	spec := ports.ContainerSpec{
		Name:  ContainerName(ec),
		Image: cfg.Get(KeyImage),
		Env:   make(map[string]string, len(ec.Metadata.Container.Env)),
		Labels: map[string]string{
			LabelEngine:   cfg.Ref.Engine,
			LabelInstance: cfg.Ref.Instance,
		},
	}

	for name, tmpl := range ec.Metadata.Container.Env {
		spec.Env[name] = ec.Expand(tmpl)
	}

	mode := values.NetworkMode(cfg.Get(domainservices.KeyNetworkMode))
	switch {
	case mode == "" || mode == values.NetworkBridge:
		spec.Network = cfg.Get(KeyNetworkName)
	default:
		spec.NetworkMode = string(mode)
	}

	if cfg.Values.Bool(domainservices.KeyNetworkExpose) && mode != values.NetworkHost {
		for _, mapping := range strings.Split(cfg.Get(domainservices.KeyNetworkPublish), ",") {
			if mapping = strings.TrimSpace(mapping); mapping != "" {
				spec.Ports = append(spec.Ports, mapping)
			}
		}
	}

	data := cfg.Get(KeyStorageData)
	if !cfg.Values.Bool(domainservices.KeyStorageEphemeral) && data != "" && ec.Metadata.Container.DataMount != "" {
		spec.Volumes = append(spec.Volumes, data+":"+ec.Metadata.Container.DataMount)
	}
	return spec
}

// Up starts the instance container, creating it and its network when
// needed.
func (e *ContainerEngine) Up(ctx context.Context, ec *ports.EngineContext) error {
	spec := BuildContainerSpec(ec)
	if spec.Image == "" {
		return apperrors.NewConfigurationError("engine", fmt.Sprintf("%s has no image configured", e.name), nil)
	}

	state, err := ec.Runtime.InspectContainer(ctx, spec.Name)
	if err != nil {
		return apperrors.NewRuntimeError("inspect", spec.Name, err)
	}
	if state.Running {
		ec.Logger.Info("container already running", "container", spec.Name)
		return nil
	}
	if state.Exists {
		ec.Logger.Info("starting existing container", "container", spec.Name)
		if err := ec.Runtime.StartContainer(ctx, spec.Name); err != nil {
			return apperrors.NewRuntimeError("start", spec.Name, err)
		}
		return nil
	}

	if spec.Network != "" {
		if err := ensureNetwork(ctx, ec, spec.Network); err != nil {
			return err
		}
	}

	ec.Logger.Info("creating container", "container", spec.Name, "image", spec.Image)
	if err := ec.Runtime.RunContainer(ctx, spec); err != nil {
		return apperrors.NewRuntimeError("run", spec.Name, err)
	}
	return nil
}

func ensureNetwork(ctx context.Context, ec *ports.EngineContext, name string) error {
	exists, err := ec.Runtime.InspectNetwork(ctx, name)
	if err != nil {
		return apperrors.NewRuntimeError("inspect network", name, err)
	}
	if exists {
		return nil
	}
	ec.Logger.Debug("creating network", "network", name)
	if err := ec.Runtime.CreateNetwork(ctx, name); err != nil {
		return apperrors.NewRuntimeError("create network", name, err)
	}
	return nil
}

// Down stops the instance container when it runs.
func (e *ContainerEngine) Down(ctx context.Context, ec *ports.EngineContext) error {
	name := ContainerName(ec)
	state, err := ec.Runtime.InspectContainer(ctx, name)
	if err != nil {
		return apperrors.NewRuntimeError("inspect", name, err)
	}
	if !state.Running {
		ec.Logger.Info("container not running", "container", name)
		return nil
	}
	if err := ec.Runtime.StopContainer(ctx, name); err != nil {
		return apperrors.NewRuntimeError("stop", name, err)
	}
	return nil
}

// Status maps the container state onto an instance status.
func (e *ContainerEngine) Status(ctx context.Context, ec *ports.EngineContext) (values.InstanceStatus, error) {
	name := ContainerName(ec)
	state, err := ec.Runtime.InspectContainer(ctx, name)
	if err != nil {
		return values.StatusUnknown, apperrors.NewRuntimeError("inspect", name, err)
	}
	switch {
	case !state.Exists:
		return values.StatusMissing, nil
	case state.Running:
		return values.StatusRunning, nil
	default:
		return values.StatusStopped, nil
	}
}

// Destroy removes the container and its bridge network. Failing to remove
// the network is logged, as other instances may still use it.
func (e *ContainerEngine) Destroy(ctx context.Context, ec *ports.EngineContext) error {
	name := ContainerName(ec)
	state, err := ec.Runtime.InspectContainer(ctx, name)
	if err != nil {
		return apperrors.NewRuntimeError("inspect", name, err)
	}
	if state.Exists {
		if err := ec.Runtime.RemoveContainer(ctx, name); err != nil {
			return apperrors.NewRuntimeError("remove", name, err)
		}
	}

	network := BuildContainerSpec(ec).Network
	if network == "" {
		return nil
	}
	exists, err := ec.Runtime.InspectNetwork(ctx, network)
	if err != nil || !exists {
		return nil
	}
	if err := ec.Runtime.RemoveNetwork(ctx, network); err != nil {
		ec.Logger.Warn("failed to remove network", "network", network, "error", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
