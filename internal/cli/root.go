// Package cli provides the command-line interface for PharosDB.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pharos-labs/pharosdb/internal/cli/commands"
	"github.com/pharos-labs/pharosdb/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// NewRootCmd creates and returns the root command. The App is populated
// once configuration is loaded, before any subcommand runs.
func NewRootCmd() *cobra.Command {
	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "pharosdb",
		Short: "PharosDB - guarded ERP database access",
		Long: `PharosDB is the guarded data-access layer for ERP query tooling.

It abstracts SQL Server, PostgreSQL, and SQLite behind one interface and
gates every query through SQL validation, role-based permission checks,
and rate limiting.`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			app.Init(cfg, newLogger(cfg.LogLevel, verbose))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			app.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: pharosdb.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewDatabasesCommand(app),
		commands.NewQueryCommand(app),
		commands.NewValidateCommand(app),
		commands.NewRolesCommand(app),
		commands.NewVersionCommand(),
	)

	return rootCmd
}

// Execute runs the root command, reporting errors on stderr.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// newLogger builds the process logger. --verbose wins over the configured
// level.
func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
