package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bridgeql/bridgeql/pkg/pipeline"
)

// newValidateCommand creates the validate command.
func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [query]",
		Short: "Structurally validate a query without executing it",
		Long: `Check a query for balanced quotes and parentheses and an allowed
statement verb. Nothing is executed and no engine connection is made.
Dialect-specific constructs are reported as warnings, since run would
translate them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}

			// Validation needs no engine; a zero processor serves.
			proc := pipeline.New(nil, nil, newLogger())
			res := proc.Validate(query)

			w := cmd.OutOrStdout()
			for _, warn := range res.Warnings {
				fmt.Fprintf(w, "warning: %s\n", warn)
			}
			if !res.Valid {
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
				}
				return fmt.Errorf("query is not valid")
			}
			fmt.Fprintln(w, "query is structurally valid")
			return nil
		},
	}
}
