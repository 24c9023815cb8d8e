package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dblab-dev/dblab/internal/application/dto"
	"github.com/dblab-dev/dblab/internal/infrastructure/output"
	"github.com/dblab-dev/dblab/internal/infrastructure/prompt"
)

// instanceFlags are the flags shared by the lifecycle commands.
type instanceFlags struct {
	opts CommonOptions
	set  []string
}

func (f *instanceFlags) register(cmd *cobra.Command) {
	f.opts.RegisterFlags(cmd)
	addOverrideFlag(cmd, &f.set)
}

func (f *instanceFlags) request(ctx *CommandContext, args []string) (dto.InstanceRequest, error) {
	if err := f.opts.ValidateFlags(); err != nil {
		return dto.InstanceRequest{}, err
	}
	overrides, err := parseOverrides(f.set)
	if err != nil {
		return dto.InstanceRequest{}, err
	}
	return dto.InstanceRequest{
		Engine:    args[0],
		Instance:  args[1],
		Overrides: overrides,
		EnvFiles:  ctx.EnvFiles(),
		Metadata:  ctx.RequestMetadata(),
	}, nil
}

func (a *app) newUpCmd() *cobra.Command {
	flags := instanceFlags{opts: DefaultCommonOptions()}

	cmd := &cobra.Command{
		Use:   "up <engine> <instance>",
		Short: "Create or start an instance",
		Long: `Resolve and validate the instance configuration, then bring the instance up.
The first successful up writes the instance document and locks its fixed
attributes.`,
		Example: `  DBLAB_PG_PASSWORD=secret123 dblab up postgres dev
  dblab up postgres dev --set port=5433 --env-file ./pg.env`,
		Args: cobra.ExactArgs(2),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			req, err := flags.request(ctx, args)
			if err != nil {
				return err
			}
			runCtx, cancel := flags.opts.ApplyToContext(ctx.Context)
			defer cancel()

			resp, err := ctx.Container.InstanceService().Up(runCtx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resp.Created {
				fmt.Fprintf(out, "Created %s\n", resp.Ref)
			}
			fmt.Fprintf(out, "%s is %s\n", resp.Ref, resp.Status)
			return nil
		}),
	}
	flags.register(cmd)
	return cmd
}

func (a *app) newDownCmd() *cobra.Command {
	flags := instanceFlags{opts: DefaultCommonOptions()}

	cmd := &cobra.Command{
		Use:     "down <engine> <instance>",
		Short:   "Stop an instance, keeping its data",
		Example: `  dblab down postgres dev`,
		Args:    cobra.ExactArgs(2),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			req, err := flags.request(ctx, args)
			if err != nil {
				return err
			}
			runCtx, cancel := flags.opts.ApplyToContext(ctx.Context)
			defer cancel()

			resp, err := ctx.Container.InstanceService().Down(runCtx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", resp.Ref, resp.Status)
			return nil
		}),
	}
	flags.register(cmd)
	return cmd
}

func (a *app) newStatusCmd() *cobra.Command {
	flags := instanceFlags{opts: DefaultCommonOptions("table", "json", "yaml")}

	cmd := &cobra.Command{
		Use:   "status <engine> <instance>",
		Short: "Show the observed and recorded status of an instance",
		Example: `  dblab status postgres dev
  dblab status sqlite dev --format json`,
		Args: cobra.ExactArgs(2),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			req, err := flags.request(ctx, args)
			if err != nil {
				return err
			}
			runCtx, cancel := flags.opts.ApplyToContext(ctx.Context)
			defer cancel()

			resp, err := ctx.Container.InstanceService().Status(runCtx, req)
			if err != nil {
				return err
			}
			return output.WriteStatus(cmd.OutOrStdout(), resp, flags.opts.Format)
		}),
	}
	flags.register(cmd)
	return cmd
}

func (a *app) newDestroyCmd() *cobra.Command {
	flags := instanceFlags{opts: DefaultCommonOptions()}
	var yes bool

	cmd := &cobra.Command{
		Use:   "destroy <engine> <instance>",
		Short: "Remove an instance and all of its data",
		Example: `  dblab destroy postgres dev
  dblab destroy sqlite scratch --yes`,
		Args: cobra.ExactArgs(2),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			req, err := flags.request(ctx, args)
			if err != nil {
				return err
			}

			if !yes {
				prompter := prompt.NewTerminalPrompter()
				if !prompter.IsInteractive() {
					return fmt.Errorf("refusing to destroy %s/%s without --yes in non-interactive mode", req.Engine, req.Instance)
				}
				confirmed, err := prompter.Confirm(
					fmt.Sprintf("Destroy %s/%s?", req.Engine, req.Instance),
					"The container, its network and all instance data are removed.",
				)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			runCtx, cancel := flags.opts.ApplyToContext(ctx.Context)
			defer cancel()

			resp, err := ctx.Container.InstanceService().Destroy(runCtx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Destroyed %s\n", resp.Ref)
			return nil
		}),
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
