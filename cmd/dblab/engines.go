package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "engines",
		Short:   "List available database engines",
		Example: `  dblab engines`,
		Args:    cobra.NoArgs,
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, _ []string) error {
			loader := ctx.Container.Metadata()
			names, err := loader.Engines()
			if err != nil {
				return fmt.Errorf("failed to list engines: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No engines found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "ENGINE\tVERSION\tDESCRIPTION"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			for _, name := range names {
				meta, err := loader.Load(name)
				if err != nil {
					ctx.Logger.Warn("skipping engine with invalid metadata", "engine", name, "error", err)
					fmt.Fprintf(w, "%s\t-\t(invalid metadata)\n", name)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, meta.DefaultVersion, meta.Description)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush writer: %w", err)
			}
			return nil
		}),
	}
}
