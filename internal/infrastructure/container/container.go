// Package container provides dependency injection for the application.
package container

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"

	"github.com/dblab-dev/dblab/engines"
	"github.com/dblab-dev/dblab/internal/application/ports"
	"github.com/dblab-dev/dblab/internal/application/services"
	"github.com/dblab-dev/dblab/internal/infrastructure/config"
	"github.com/dblab-dev/dblab/internal/infrastructure/output"
	"github.com/dblab-dev/dblab/internal/infrastructure/persistence/filesystem"
	"github.com/dblab-dev/dblab/internal/infrastructure/redaction"
	"github.com/dblab-dev/dblab/internal/infrastructure/runtime"
	"github.com/dblab-dev/dblab/internal/infrastructure/sqlite"
	"github.com/dblab-dev/dblab/internal/infrastructure/system"
)

// Container holds all application dependencies.
type Container struct {
	metadata         *config.MetadataLoader
	envResolver      *config.EnvResolver
	interpolator     *config.Interpolator
	store            *filesystem.InstanceStore
	runtime          ports.ContainerRuntime
	engines          *services.EngineRegistry
	resolveUseCase   *services.ResolveConfigUseCase
	instanceService  *services.InstanceService
	runSQLUseCase    *services.RunSQLUseCase
	redactor         *redaction.Redactor
	formatterFactory *output.FormatterFactory
	systemCfg        *system.Config
	runtimeCfg       *config.RuntimeConfig
	logger           *slog.Logger
}

// Options configure the container. Non-empty fields take precedence over
// the system config file.
type Options struct {
	Logger           *slog.Logger
	SystemConfigPath string
	DataRoot         string
	EnginesDir       string
	Runtime          string
	EnvFiles         []string

	// Stdout receives run-sql progress lines; nil means os.Stdout
	Stdout io.Writer

	// Environ and LookupEnv default to the process environment
	Environ   func() []string
	LookupEnv func(string) (string, bool)

	// LookPath locates the runtime binary; nil means exec.LookPath
	LookPath func(string) (string, error)
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}

	// Load system config
	configPath := opts.SystemConfigPath
	if configPath == "" {
		configPath = system.DefaultPath()
	}
	systemCfg, err := system.NewConfigLoader().Load(configPath)
	if err != nil {
		return nil, err
	}

	runtimeCfg := config.FromSystemConfig(systemCfg)
	if opts.DataRoot != "" {
		runtimeCfg.DataRoot = opts.DataRoot
	}
	if opts.EnginesDir != "" {
		runtimeCfg.EnginesDir = opts.EnginesDir
	}
	if opts.Runtime != "" {
		runtimeCfg.Runtime = opts.Runtime
	}
	runtimeCfg.EnvFiles = append(runtimeCfg.EnvFiles, opts.EnvFiles...)
	runtimeCfg.ApplyDefaults()

	// Initialize redactor
	redactor, err := redaction.New(redaction.Config{
		Patterns: runtimeCfg.Redaction.Patterns,
		Paths:    runtimeCfg.Redaction.Paths,
		HashMode: runtimeCfg.Redaction.HashMode.Enabled,
		Salt:     runtimeCfg.Redaction.HashMode.Salt,
	})
	if err != nil {
		return nil, err
	}

	// An on-disk engines directory shadows the bundled metadata
	var sources []fs.FS
	if runtimeCfg.EnginesDir != "" {
		if info, err := os.Stat(runtimeCfg.EnginesDir); err == nil && info.IsDir() {
			sources = append(sources, os.DirFS(runtimeCfg.EnginesDir))
		} else {
			opts.Logger.Warn("engines directory not found, using bundled metadata", "path", runtimeCfg.EnginesDir)
		}
	}
	sources = append(sources, engines.FS())

	metadata, err := config.NewMetadataLoader(opts.Logger, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata loader: %w", err)
	}

	envResolver := config.NewEnvResolver(opts.Logger, opts.Environ)
	interpolator := config.NewInterpolator(
		opts.Logger,
		config.DefaultPresets(runtimeCfg.DataRoot, opts.LookupEnv),
		opts.LookupEnv,
	)
	store := filesystem.NewInstanceStore(runtimeCfg.DataRoot, opts.Logger)

	// A missing runtime only fails the commands that reach it
	var containerRuntime ports.ContainerRuntime
	if binary, err := runtime.Detect(runtimeCfg.Runtime, opts.LookPath); err != nil {
		opts.Logger.Debug("container runtime unavailable", "error", err)
		containerRuntime = runtime.Unavailable{Err: err}
	} else {
		containerRuntime = runtime.NewCLI(binary, nil, opts.Logger)
	}

	engineRegistry := services.NewEngineRegistry(sqlite.Engine{})

	// Wire up use cases
	resolveUseCase := services.NewResolveConfigUseCase(
		metadata,
		store,
		envResolver,
		interpolator,
		nil,
		opts.Logger,
	)
	instanceService := services.NewInstanceService(
		resolveUseCase,
		store,
		containerRuntime,
		engineRegistry,
		interpolator,
		opts.Logger,
	)
	stdout := opts.Stdout
	executor := sqlite.NewExecutor(opts.Logger, func(format string, args ...any) {
		_, _ = fmt.Fprintf(stdout, format, args...)
	})
	runSQLUseCase := services.NewRunSQLUseCase(
		resolveUseCase,
		executor,
		config.DotEnv{},
		opts.LookupEnv,
		opts.Logger,
	)

	return &Container{
		metadata:         metadata,
		envResolver:      envResolver,
		interpolator:     interpolator,
		store:            store,
		runtime:          containerRuntime,
		engines:          engineRegistry,
		resolveUseCase:   resolveUseCase,
		instanceService:  instanceService,
		runSQLUseCase:    runSQLUseCase,
		redactor:         redactor,
		formatterFactory: output.NewFormatterFactory(),
		systemCfg:        systemCfg,
		runtimeCfg:       runtimeCfg,
		logger:           opts.Logger,
	}, nil
}

// ResolveConfigUseCase returns the configuration resolution use case.
func (c *Container) ResolveConfigUseCase() *services.ResolveConfigUseCase {
	return c.resolveUseCase
}

// InstanceService returns the instance lifecycle service.
func (c *Container) InstanceService() *services.InstanceService {
	return c.instanceService
}

// RunSQLUseCase returns the run-sql use case.
func (c *Container) RunSQLUseCase() *services.RunSQLUseCase {
	return c.runSQLUseCase
}

// Metadata returns the engine metadata loader.
func (c *Container) Metadata() *config.MetadataLoader {
	return c.metadata
}

// EnvResolver returns the environment resolver.
func (c *Container) EnvResolver() *config.EnvResolver {
	return c.envResolver
}

// Store returns the instance document store.
func (c *Container) Store() *filesystem.InstanceStore {
	return c.store
}

// Runtime returns the container runtime.
func (c *Container) Runtime() ports.ContainerRuntime {
	return c.runtime
}

// MetadataPath returns the file the metadata of engine is read from: the
// engines directory copy when present, else its bundled location.
func (c *Container) MetadataPath(engine string) string {
	if dir := c.runtimeCfg.EnginesDir; dir != "" {
		candidate := filepath.Join(dir, engine, engines.MetadataFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return path.Join("engines", engine, engines.MetadataFile)
}

// Redactor returns the configured redactor.
func (c *Container) Redactor() *redaction.Redactor {
	return c.redactor
}

// FormatterFactory returns the validation report formatter factory.
func (c *Container) FormatterFactory() *output.FormatterFactory {
	return c.formatterFactory
}

// SystemConfig returns the system configuration as read from disk.
func (c *Container) SystemConfig() *system.Config {
	return c.systemCfg
}

// RuntimeConfig returns the effective configuration of this invocation.
func (c *Container) RuntimeConfig() *config.RuntimeConfig {
	return c.runtimeCfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
