package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dblab-dev/dblab/internal/application/dto"
	"github.com/dblab-dev/dblab/internal/domain/values"
	"github.com/dblab-dev/dblab/internal/infrastructure/container"
)

// CommandContext provides common command dependencies.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
	RunID     values.RunID
}

// RequestMetadata tags a use case request with this invocation's run ID.
func (c *CommandContext) RequestMetadata() dto.RequestMetadata {
	return dto.RequestMetadata{RequestID: c.RunID.String()}
}

// EnvFiles returns the env-files of this invocation in read order.
func (c *CommandContext) EnvFiles() []string {
	return c.Container.RuntimeConfig().EnvFiles
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization.
// Handles common setup: settings, logger, dependency injection.
func (a *app) withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		runID := values.NewRunID()
		logger := slog.Default().With("run_id", runID.String())

		c, err := container.New(container.Options{
			Logger:           logger,
			SystemConfigPath: a.settings.GetString(keyConfig),
			DataRoot:         a.settings.GetString(keyDataRoot),
			EnginesDir:       a.settings.GetString(keyEnginesDir),
			Runtime:          a.settings.GetString(keyRuntime),
			EnvFiles:         a.settings.GetStringSlice(keyEnvFile),
			Stdout:           cmd.OutOrStdout(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
			RunID:     runID,
		}
		if ctx.Context == nil {
			ctx.Context = context.Background()
		}

		return handler(ctx, cmd, args)
	}
}

// addOverrideFlag registers --set on a command that resolves an instance.
func addOverrideFlag(cmd *cobra.Command, target *[]string) {
	cmd.Flags().StringArrayVar(target, "set", nil,
		"Override a value as name=value; name is a cli arg of the engine or a dotted key (repeatable)")
}

// parseOverrides turns name=value pairs into a map. Later pairs win.
func parseOverrides(pairs []string) (map[string]string, error) {
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", pair)
		}
		overrides[name] = value
	}
	return overrides, nil
}

// optionalArg returns args[i], or "" when absent.
func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
