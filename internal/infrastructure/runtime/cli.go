// Package runtime drives a docker compatible container runtime through its
// command line.
package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dblab-dev/dblab/internal/application/ports"
)

// Supported runtime binaries.
const (
	Docker = "docker"
	Podman = "podman"
	Auto   = "auto"
)

// maxErrorOutput bounds the stderr text carried in errors.
const maxErrorOutput = 500

// ErrNotFound is returned by the runner when the object named in a command
// does not exist.
var ErrNotFound = errors.New("not found")

// Runner executes a runtime command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. A failing command yields an error holding
// the start of its stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errOutput := strings.TrimSpace(stderr.String())
		if len(errOutput) > maxErrorOutput {
			errOutput = errOutput[:maxErrorOutput]
		}
		if isNotFound(errOutput) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, errOutput)
		}
		return nil, fmt.Errorf("%w: %s", err, errOutput)
	}
	return stdout.Bytes(), nil
}

func isNotFound(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "no such") || strings.Contains(s, "not found")
}

// Detect picks the runtime binary. "auto" or "" takes docker when it is on
// PATH and podman otherwise.
func Detect(preferred string, lookPath func(string) (string, error)) (string, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	switch preferred {
	case Docker, Podman:
		return preferred, nil
	case "", Auto:
		for _, candidate := range []string{Docker, Podman} {
			if _, err := lookPath(candidate); err == nil {
				return candidate, nil
			}
		}
		return "", errors.New("neither docker nor podman found on PATH")
	default:
		return "", fmt.Errorf("unsupported container runtime %q (valid: docker, podman, auto)", preferred)
	}
}

// CLI implements ports.ContainerRuntime on top of a runtime binary.
type CLI struct {
	runner Runner
	logger *slog.Logger
	binary string
}

var _ ports.ContainerRuntime = (*CLI)(nil)

// NewCLI creates a runtime driving binary. runner nil means ExecRunner.
func NewCLI(binary string, runner Runner, logger *slog.Logger) *CLI {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{binary: binary, runner: runner, logger: logger}
}

// Binary returns the runtime binary name.
func (c *CLI) Binary() string {
	return c.binary
}

func (c *CLI) run(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debug("invoking container runtime", "binary", c.binary, "command", args[0])
	return c.runner.Run(ctx, c.binary, args...)
}

// RunArgs returns the arguments of "run" for spec. Environment values are
// passed by name only, so secrets never appear on the command line.
func RunArgs(spec ports.ContainerSpec) []string {
	args := []string{"run", "--detach", "--name", spec.Name}

	switch {
	case spec.Network != "":
		args = append(args, "--network", spec.Network)
	case spec.NetworkMode != "":
		args = append(args, "--network", spec.NetworkMode)
	}

	for _, k := range sortedKeys(spec.Labels) {
		args = append(args, "--label", k+"="+spec.Labels[k])
	}
	for _, k := range sortedKeys(spec.Env) {
		args = append(args, "--env", k)
	}
	for _, p := range spec.Ports {
		args = append(args, "--publish", p)
	}
	for _, v := range spec.Volumes {
		args = append(args, "--volume", v)
	}
	return append(args, spec.Image)
}

// RunContainer creates and starts a container. Host directories of bind
// mounts are created first.
func (c *CLI) RunContainer(ctx context.Context, spec ports.ContainerSpec) error {
	for _, v := range spec.Volumes {
		host, _, ok := strings.Cut(v, ":")
		if !ok || host == "" {
			continue
		}
		//nolint:gosec // G301: bind mount sources are read by the container user
		if err := os.MkdirAll(host, 0o755); err != nil {
			return fmt.Errorf("failed to create volume directory %s: %w", host, err)
		}
	}

	runner := c.runner
	if len(spec.Env) > 0 {
		runner = envRunner{Runner: c.runner, env: spec.Env}
	}
	c.logger.Debug("invoking container runtime", "binary", c.binary, "command", "run")
	_, err := runner.Run(ctx, c.binary, RunArgs(spec)...)
	return err
}

// StartContainer starts an existing container.
func (c *CLI) StartContainer(ctx context.Context, name string) error {
	_, err := c.run(ctx, "start", name)
	return err
}

// StopContainer stops a running container.
func (c *CLI) StopContainer(ctx context.Context, name string) error {
	_, err := c.run(ctx, "stop", name)
	return err
}

// RemoveContainer force-removes a container.
func (c *CLI) RemoveContainer(ctx context.Context, name string) error {
	_, err := c.run(ctx, "rm", "--force", name)
	return err
}

// InspectContainer reports the state of a container. A missing container
// is not an error.
func (c *CLI) InspectContainer(ctx context.Context, name string) (*ports.ContainerState, error) {
	out, err := c.run(ctx, "container", "inspect", "--format", "{{.State.Status}}", name)
	if errors.Is(err, ErrNotFound) {
		return &ports.ContainerState{Name: name}, nil
	}
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(string(out))
	return &ports.ContainerState{
		Name:    name,
		Status:  status,
		Exists:  true,
		Running: status == "running",
	}, nil
}

// CreateNetwork creates a bridge network.
func (c *CLI) CreateNetwork(ctx context.Context, name string) error {
	_, err := c.run(ctx, "network", "create", name)
	return err
}

// RemoveNetwork removes a network.
func (c *CLI) RemoveNetwork(ctx context.Context, name string) error {
	_, err := c.run(ctx, "network", "rm", name)
	return err
}

// InspectNetwork reports whether a network exists.
func (c *CLI) InspectNetwork(ctx context.Context, name string) (bool, error) {
	_, err := c.run(ctx, "network", "inspect", name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// envRunner hands container environment values to the runtime process
// through its own environment.
type envRunner struct {
	Runner
	env map[string]string
}

// EnvCarrier is implemented by runners that accept extra process
// environment for one command.
type EnvCarrier interface {
	RunWithEnv(ctx context.Context, env map[string]string, name string, args ...string) ([]byte, error)
}

func (r envRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if carrier, ok := r.Runner.(EnvCarrier); ok {
		return carrier.RunWithEnv(ctx, r.env, name, args...)
	}
	return r.Runner.Run(ctx, name, args...)
}

// RunWithEnv runs name with the current environment plus env.
func (ExecRunner) RunWithEnv(ctx context.Context, env map[string]string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	for _, k := range sortedKeys(env) {
		cmd.Env = append(cmd.Env, k+"="+env[k])
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errOutput := strings.TrimSpace(stderr.String())
		if len(errOutput) > maxErrorOutput {
			errOutput = errOutput[:maxErrorOutput]
		}
		return nil, fmt.Errorf("%w: %s", err, errOutput)
	}
	return stdout.Bytes(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
