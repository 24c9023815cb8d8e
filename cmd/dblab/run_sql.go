package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dblab-dev/dblab/internal/application/dto"
	"github.com/dblab-dev/dblab/internal/infrastructure/sqlite"
)

func (a *app) newRunSQLCmd() *cobra.Command {
	opts := DefaultCommonOptions()
	var (
		engine   string
		instance string
		envPath  string
	)

	cmd := &cobra.Command{
		Use:   "run-sql <path>...",
		Short: "Execute .sql files against a SQLite database",
		Long: `Execute .sql files, given directly or found recursively in directories, in
sorted order. Each file runs as one script; execution stops at the first
failing file.

With --instance the database is the instance's storage.db_file. Without it,
SQLITE_DB_PATH is read from the environment after loading the --env file.`,
		Example: `  dblab run-sql ./migrations --instance dev
  dblab run-sql schema.sql seed.sql --env ./.env`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}
			runCtx, cancel := opts.ApplyToContext(ctx.Context)
			defer cancel()

			resp, err := ctx.Container.RunSQLUseCase().Execute(runCtx, dto.RunSQLRequest{
				Engine:     engine,
				Instance:   instance,
				DotEnvPath: envPath,
				Paths:      args,
				EnvFiles:   ctx.EnvFiles(),
				Metadata:   ctx.RequestMetadata(),
			})
			if err != nil {
				return err
			}
			if len(resp.Files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No .sql files found to execute.")
			}
			return nil
		}),
	}
	opts.RegisterFlags(cmd)
	cmd.Flags().StringVar(&engine, "engine", sqlite.EngineName, "Engine of --instance")
	cmd.Flags().StringVar(&instance, "instance", "", "Instance whose database receives the scripts")
	cmd.Flags().StringVar(&envPath, "env", ".env", ".env file providing SQLITE_DB_PATH when no instance is given")
	return cmd
}
