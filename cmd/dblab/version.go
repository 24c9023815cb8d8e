package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dblab-dev/dblab/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dblab",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "dblab version %s\n", info.Full())
		},
	}
}
