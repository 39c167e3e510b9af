// Package cli provides the command-line interface for bridgeql.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bridgeql/bridgeql/internal/config"
	"github.com/bridgeql/bridgeql/pkg/engine"
	"github.com/bridgeql/bridgeql/pkg/engines/duckdb"
	"github.com/bridgeql/bridgeql/pkg/engines/sqlite"
)

var (
	cfgFile     string
	dialectFlag string
	verbose     bool
	cfg         *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bridgeql",
		Short: "BridgeQL - SQL dialect bridge for a canonical columnar engine",
		Long: `BridgeQL accepts queries written in foreign SQL dialects, normalizes
identifiers, translates dialect-specific constructs, harmonizes type
mismatches against imperfect data, and executes the result on a canonical
engine (DuckDB by default).`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			if cfgFile != "" {
				cfg, err = config.Load(cfgFile)
			} else {
				cfg, err = config.LoadFromDir(".")
			}
			if err != nil {
				return err
			}
			if dialectFlag != "" {
				cfg.Dialect = dialectFlag
			}
			return cfg.Validate()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
SQL dialect bridge built with Go and DuckDB
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./bridgeql.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dialectFlag, "dialect", "d", "", "Source dialect (mysql|postgres|sqlserver|sqlite|duckdb; default: detect)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mysql", "postgres", "sqlserver", "sqlite", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the process logger honoring --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newEngine creates the configured execution engine. The caller owns Connect
// and Close.
func newEngine(logger *slog.Logger) engine.Engine {
	switch strings.ToLower(cfg.Target.Type) {
	case "sqlite":
		return sqlite.New(logger)
	default:
		return duckdb.New(logger)
	}
}
