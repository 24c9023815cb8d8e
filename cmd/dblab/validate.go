package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dblab-dev/dblab/internal/application/dto"
	"github.com/dblab-dev/dblab/internal/application/ports"
	domainservices "github.com/dblab-dev/dblab/internal/domain/services"
	"github.com/dblab-dev/dblab/internal/version"
)

func (a *app) newValidateCmd() *cobra.Command {
	opts := DefaultCommonOptions("table", "json", "yaml", "junit", "sarif")
	var (
		set     []string
		outFile string
		color   bool
	)

	cmd := &cobra.Command{
		Use:   "validate <engine> [instance]",
		Short: "Evaluate every validation rule and report the results",
		Long: `Resolve the configuration and evaluate all built-in and engine rules without
touching the runtime. The command fails when any rule fails.`,
		Example: `  dblab validate postgres dev
  dblab validate postgres dev --format sarif -o dblab.sarif`,
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

			instance := optionalArg(args, 1)
			resp, err := ctx.Container.ResolveConfigUseCase().Execute(runCtx, dto.ResolveRequest{
				Engine:          args[0],
				Instance:        instance,
				Verb:            domainservices.VerbValidate,
				Overrides:       overrides,
				EnvFiles:        ctx.EnvFiles(),
				Metadata:        ctx.RequestMetadata(),
				EnforceRequired: instance != "",
				ReportOnly:      true,
			})
			if err != nil {
				return err
			}

			report := dto.NewValidationReport(resp, domainservices.VerbValidate, version.Get().String())

			var w io.Writer = cmd.OutOrStdout()
			if outFile != "" {
				//nolint:gosec // G304: output path is chosen by the user
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil {
						ctx.Logger.Error("failed to close output file", "error", cerr)
					}
				}()
				w = f
			}

			formatter, err := ctx.Container.FormatterFactory().Create(opts.Format, w, ports.FormatterOptions{
				MetadataPath: ctx.Container.MetadataPath(args[0]),
				Indent:       true,
				Color:        color,
			})
			if err != nil {
				return err
			}
			if err := formatter.Format(report); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			if !report.Passed() {
				return fmt.Errorf("validation failed: %d of %d rules failed", report.Failed(), len(report.Results))
			}
			return nil
		}),
	}
	opts.RegisterFlags(cmd)
	addOverrideFlag(cmd, &set)
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&color, "color", false, "Colorize table output")
	return cmd
}
