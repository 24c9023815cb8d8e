package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dblab-dev/dblab/internal/infrastructure/redaction"
)

// Settings keys bound to flags and DBLAB_* environment variables.
const (
	keyConfig     = "config"
	keyDataRoot   = "data-root"
	keyEnginesDir = "engines-dir"
	keyRuntime    = "runtime"
	keyEnvFile    = "env-file"
)

// app holds the state of one command tree.
type app struct {
	settings *viper.Viper
	verbose  bool
	quiet    bool
}

// newRootCmd builds the application entry point with all subcommands.
func newRootCmd() *cobra.Command {
	a := &app{settings: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "dblab",
		Short: "Local database instances in containers",
		Long: `dblab provisions and manages database instances for local development.

Each instance's configuration is resolved from engine metadata defaults, the
persisted instance document, env-files, the process environment and --set
overrides. Attributes fixed at creation never change afterwards.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String(keyConfig, "", "config file (default is $XDG_CONFIG_HOME/dblab/config.yaml)")
	flags.String(keyDataRoot, "", "directory holding instance data (env DBLAB_DATA_ROOT)")
	flags.String(keyEnginesDir, "", "directory with engine metadata overriding the bundled engines (env DBLAB_ENGINES_DIR)")
	flags.String(keyRuntime, "", "container runtime: docker, podman or auto (env DBLAB_RUNTIME)")
	flags.StringArray(keyEnvFile, nil, "env-file to read, later files win (repeatable)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only log errors")

	for _, key := range []string{keyConfig, keyDataRoot, keyEnginesDir, keyRuntime, keyEnvFile} {
		_ = a.settings.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(
		a.newUpCmd(),
		a.newDownCmd(),
		a.newStatusCmd(),
		a.newDestroyCmd(),
		a.newListCmd(),
		a.newConfigCmd(),
		a.newValidateCmd(),
		a.newEnvCmd(),
		a.newEnginesCmd(),
		a.newRunSQLCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// initConfig binds DBLAB_* environment variables and sets up logging.
func (a *app) initConfig(cmd *cobra.Command) error {
	if a.verbose && a.quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}

	a.settings.SetEnvPrefix("DBLAB")
	a.settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.settings.AutomaticEnv()

	return a.setupLogging(cmd.ErrOrStderr())
}

// setupLogging installs the default logger. Log lines pass through a
// pattern redactor so credentials in errors never reach the terminal.
func (a *app) setupLogging(w io.Writer) error {
	level := slog.LevelInfo
	switch {
	case a.verbose:
		level = slog.LevelDebug
	case a.quiet:
		level = slog.LevelError
	}

	redactor, err := redaction.New(redaction.Config{DisableGitleaks: true})
	if err != nil {
		return err
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(redaction.NewWriter(w, redactor), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
