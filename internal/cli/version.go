package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCommand creates the version command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "BridgeQL v%s (%s)\n", Version, GitCommit)
			fmt.Fprintln(cmd.OutOrStdout(), "SQL dialect bridge built with Go and DuckDB")
		},
	}
}
