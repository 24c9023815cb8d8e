package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dblab-dev/dblab/internal/application/dto"
	domainservices "github.com/dblab-dev/dblab/internal/domain/services"
	"github.com/dblab-dev/dblab/internal/infrastructure/output"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change instance configuration",
	}
	cmd.AddCommand(a.newConfigShowCmd(), a.newConfigSetCmd(), a.newConfigUnsetCmd())
	return cmd
}

func (a *app) newConfigShowCmd() *cobra.Command {
	opts := DefaultCommonOptions(output.ConfigFormats()...)
	var (
		set         []string
		withSources bool
		showSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "show <engine> [instance]",
		Short: "Print the resolved configuration",
		Long: `Resolve the configuration of an engine, or of one of its instances, and print it.
Secret values are redacted unless --show-secrets is given. Failing validation
rules are logged as warnings; they do not stop the output.`,
		Example: `  dblab config show postgres
  dblab config show postgres dev --sources --format yaml`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}
			overrides, err := parseOverrides(set)
			if err != nil {
				return err
			}
			runCtx, cancel := opts.ApplyToContext(ctx.Context)
			defer cancel()

			resp, err := ctx.Container.ResolveConfigUseCase().Execute(runCtx, dto.ResolveRequest{
				Engine:     args[0],
				Instance:   optionalArg(args, 1),
				Verb:       domainservices.VerbConfig,
				Overrides:  overrides,
				EnvFiles:   ctx.EnvFiles(),
				Metadata:   ctx.RequestMetadata(),
				ReportOnly: true,
			})
			if err != nil {
				return err
			}
			for _, res := range resp.Results {
				if !res.Passed {
					ctx.Logger.Warn("validation rule failed", "rule", res.Rule, "message", res.Message)
				}
			}

			view := output.ConfigView{Values: resp.Config.Values}
			if !showSecrets {
				view.Values = ctx.Container.Redactor().RedactDocument(resp.Config.Values, resp.Metadata.SecretKeys())
			}
			if withSources {
				view.Sources = resp.Config.Sources
			}
			return output.WriteConfig(cmd.OutOrStdout(), view, opts.Format)
		}),
	}
	opts.RegisterFlags(cmd)
	addOverrideFlag(cmd, &set)
	cmd.Flags().BoolVar(&withSources, "sources", false, "Show the layer each value came from")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values in clear text")
	return cmd
}

func (a *app) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <engine> <instance> <name> <value>",
		Short: "Persist a runtime override on an instance",
		Long: `Store a value in the runtime section of the instance document. It applies to
every later command unless an env-file, the environment or --set overrides it.
Attributes fixed at creation cannot be changed.`,
		Example: `  dblab config set postgres dev port 5433`,
		Args:    cobra.ExactArgs(4),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			err := ctx.Container.InstanceService().SetRuntime(ctx.Context, dto.SetRuntimeRequest{
				Engine:   args[0],
				Instance: args[1],
				Key:      args[2],
				Value:    args[3],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s on %s/%s\n", args[2], args[0], args[1])
			return nil
		}),
	}
}

func (a *app) newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "unset <engine> <instance> <name>",
		Short:   "Remove a persisted runtime override",
		Example: `  dblab config unset postgres dev port`,
		Args:    cobra.ExactArgs(3),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			err := ctx.Container.InstanceService().SetRuntime(ctx.Context, dto.SetRuntimeRequest{
				Engine:   args[0],
				Instance: args[1],
				Key:      args[2],
				Unset:    true,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s on %s/%s\n", args[2], args[0], args[1])
			return nil
		}),
	}
}
