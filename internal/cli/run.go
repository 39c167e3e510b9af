package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/bridgeql/bridgeql/pkg/dialect"
	"github.com/bridgeql/bridgeql/pkg/engine"
	"github.com/bridgeql/bridgeql/pkg/ident"
	"github.com/bridgeql/bridgeql/pkg/infer"
	"github.com/bridgeql/bridgeql/pkg/pipeline"
)

// runOptions holds options for the run command.
type runOptions struct {
	Loads []string
	Table string
}

// newRunCommand creates the run command.
func newRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Rewrite a query for the canonical engine and execute it",
		Long: `Run a foreign-dialect query through the rewrite pipeline and execute it
on the configured engine. The query is read from the argument, or from
standard input when no argument is given.`,
		Example: `  # Execute a MySQL-flavored query against a staged CSV
  bridgeql run --load orders=orders.csv "SELECT * FROM orders WHERE amount LIKE '1%'"

  # Pipe a query in and force the source dialect
  cat report.sql | bridgeql run -d sqlserver --table orders`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, args)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Loads, "load", nil, "Stage a CSV as a table, as name=path.csv (repeatable)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Table whose column profiles drive type harmonization (default: the single --load table)")

	return cmd
}

func runRun(cmd *cobra.Command, opts *runOptions, args []string) error {
	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}

	logger := newLogger()
	eng := newEngine(logger)
	ctx := cmd.Context()
	if err := eng.Connect(ctx, cfg.Target.EngineConfig()); err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Target.Type, err)
	}
	defer eng.Close()

	profileTable := opts.Table
	for _, load := range opts.Loads {
		name, path, ok := strings.Cut(load, "=")
		if !ok {
			return fmt.Errorf("invalid --load %q: expected name=path.csv", load)
		}
		if err := eng.LoadCSV(ctx, name, path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		logger.Info("staged table", "table", name, "path", path)
		if profileTable == "" && len(opts.Loads) == 1 {
			profileTable = name
		}
	}

	var profiles *core.ProfileSet
	if profileTable != "" {
		profiles, err = buildProfiles(cmd, eng, profileTable)
		if err != nil {
			return err
		}
	}

	analyzer, err := infer.New(eng, cfg.Infer)
	if err != nil {
		return fmt.Errorf("building analyzer: %w", err)
	}

	src := core.SourceDialect(cfg.Dialect)
	if src == "" {
		src = dialect.Detect(query)
	}

	proc := pipeline.New(eng, analyzer, logger)
	out := proc.Process(ctx, core.NewQuery(query, src), profiles)

	w := cmd.OutOrStdout()
	for _, note := range out.Notes {
		fmt.Fprintf(cmd.ErrOrStderr(), "note: %s\n", note)
	}
	if !out.OK {
		return fmt.Errorf("execution failed: %w", out.Err)
	}

	renderResult(w, out)
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "executed: %s\n", out.FinalSQL)
	}
	return nil
}

// readQuery takes the query from the argument or standard input.
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading query from stdin: %w", err)
	}
	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", fmt.Errorf("no query given: pass it as an argument or on stdin")
	}
	return query, nil
}

// buildProfiles describes the table and derives the canonical column
// profiles the harmonizer works from.
func buildProfiles(cmd *cobra.Command, eng engine.Engine, tableName string) (*core.ProfileSet, error) {
	cols, err := eng.DescribeColumns(cmd.Context(), tableName)
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", tableName, err)
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	m := ident.BuildMapping(names)

	profiles := make([]core.ColumnProfile, len(cols))
	for i, c := range cols {
		canon, _ := m.Canonical(c.Name)
		profiles[i] = core.ColumnProfile{
			Name:      c.Name,
			Canonical: canon,
			Kind:      core.KindFromDeclaredType(c.DeclaredType),
		}
	}
	return core.NewProfileSet(tableName, profiles), nil
}

// renderResult prints the row set as a bordered table with a row-count
// footer.
func renderResult(w io.Writer, out core.ExecutionOutcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(out.Columns))
	for i, c := range out.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range out.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			if v == nil {
				r[i] = "NULL"
				continue
			}
			r[i] = v
		}
		t.AppendRow(r)
	}
	t.Render()
	fmt.Fprintf(w, "%d row(s) in %s\n", out.RowCount, out.Elapsed.Round(time.Microsecond))
}
