package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dblab-dev/dblab/internal/domain/entities"
	"github.com/dblab-dev/dblab/internal/infrastructure/config"
	"github.com/dblab-dev/dblab/internal/infrastructure/prompt"
)

func (a *app) newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage env-files",
	}
	cmd.AddCommand(a.newEnvInitCmd())
	return cmd
}

func (a *app) newEnvInitCmd() *cobra.Command {
	var (
		outPath       string
		force         bool
		noInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "init <engine>",
		Short: "Write an env-file with the variables of an engine",
		Long: `Ask for the value of every environment variable the engine declares and write
them to an env-file. Answers are prefilled from the current env-files, the
process environment and the engine defaults.`,
		Example: `  dblab env init postgres
  DBLAB_PG_PASSWORD=secret123 dblab env init postgres --no-interactive -o pg.env`,
		Args: cobra.ExactArgs(1),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			engine := args[0]
			if outPath == "" {
				outPath = engine + ".env"
			}
			if _, err := os.Stat(outPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", outPath, err)
			}

			meta, err := ctx.Container.Metadata().Load(engine)
			if err != nil {
				return err
			}
			raw, err := ctx.Container.EnvResolver().Raw(ctx.EnvFiles())
			if err != nil {
				return err
			}
			current := currentEnvValues(meta, raw)

			var vars map[string]string
			prompter := prompt.NewTerminalPrompter()
			if noInteractive || !prompter.IsInteractive() {
				vars = current
				if missing := missingRequired(meta, vars); len(missing) > 0 {
					return prompt.NonInteractiveError(engine, missing)
				}
			} else {
				vars, err = prompter.EnvValues(meta.EnvVars, current)
				if err != nil {
					return err
				}
			}

			header := fmt.Sprintf("dblab environment for %s\nRead it with: dblab --env-file %s <command>", engine, outPath)
			if err := config.WriteEnvFile(outPath, vars, header); err != nil {
				return err
			}
			ctx.Logger.Debug("env-file written", "path", outPath, "variables", len(vars))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d variables to %s\n", len(vars), outPath)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "env-file to write (default: <engine>.env)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing env-file")
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Do not prompt; use current values only")
	return cmd
}

// currentEnvValues picks, for each declared variable, the value set in the
// environment or else the engine default of the key it feeds.
func currentEnvValues(meta *entities.EngineMetadata, raw map[string]string) map[string]string {
	out := make(map[string]string, len(meta.EnvVars))
	for _, v := range meta.EnvVars {
		if value, ok := raw[v.Name]; ok && value != "" {
			out[v.Name] = value
			continue
		}
		if v.MapsTo != "" {
			if def := meta.Defaults.Get(v.MapsTo); def != "" {
				out[v.Name] = def
			}
		}
	}
	return out
}

func missingRequired(meta *entities.EngineMetadata, vars map[string]string) []string {
	var missing []string
	for _, v := range meta.EnvVars {
		if v.Required && vars[v.Name] == "" {
			missing = append(missing, v.Name)
		}
	}
	return missing
}
