package main

import (
	"github.com/spf13/cobra"

	"github.com/dblab-dev/dblab/internal/application/dto"
	"github.com/dblab-dev/dblab/internal/infrastructure/output"
)

func (a *app) newListCmd() *cobra.Command {
	opts := DefaultCommonOptions("table", "json", "yaml")

	cmd := &cobra.Command{
		Use:   "list [engine]",
		Short: "List instances",
		Long:  `List the instances under the data root with their recorded status.`,
		Example: `  dblab list
  dblab list postgres --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}
			runCtx, cancel := opts.ApplyToContext(ctx.Context)
			defer cancel()

			rows, err := ctx.Container.InstanceService().List(runCtx, dto.ListRequest{
				Engine:      optionalArg(args, 0),
				Concurrency: ctx.Container.RuntimeConfig().ListConcurrency,
			})
			if err != nil {
				return err
			}
			return output.WriteInstances(cmd.OutOrStdout(), rows, opts.Format)
		}),
	}
	opts.RegisterFlags(cmd)
	return cmd
}
