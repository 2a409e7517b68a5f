package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pharos-labs/pharosdb/pkg/db"
	"github.com/pharos-labs/pharosdb/pkg/security"
	"github.com/spf13/cobra"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	Database string
	User     string
	MaxRows  int
	Format   string
	Input    string
}

// NewQueryCommand creates the query command. It runs the full guarded
// pipeline: validate the SQL, check the user's permission, take a rate-limit
// slot, then execute against the named database.
func NewQueryCommand(app *App) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Execute a read-only SQL query",
		Example: `  # Query the default database
  pharosdb query "SELECT TOP 10 * FROM ArCustomer"

  # Query a named database with a row cap
  pharosdb query "SELECT 1" --database analytics --max-rows 100

  # Output as JSON
  pharosdb query "SELECT * FROM InvMaster" --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "Database name (defaults to the configured default)")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "User identity for permission and rate-limit checks")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", 0, "Maximum rows to return (0 = per-database default)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, app *App, opts *QueryOptions) error {
	sql, err := resolveSQL(args, opts.Input)
	if err != nil {
		return err
	}

	if err := app.Validator.ValidateOrRaise(sql); err != nil {
		return err
	}

	if err := app.Permissions.RequirePermission(opts.User, security.PermQueryExecute); err != nil {
		return err
	}

	identifier := opts.User
	if identifier == "" {
		identifier = "anonymous"
	}
	if !app.Limiter.RecordRequest(identifier) {
		return fmt.Errorf("rate limit exceeded, retry in %s",
			app.Limiter.ResetAfter(identifier).Round(time.Second))
	}

	conn, err := app.Registry.Get(opts.Database)
	if err != nil {
		return err
	}

	rows, err := conn.ExecuteQuery(context.Background(), sql, nil, opts.MaxRows, db.DefaultMaxRetries)
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}

	return renderRows(cmd.OutOrStdout(), rows, opts.Format)
}

func resolveSQL(args []string, input string) (string, error) {
	if input != "" {
		data, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read SQL file: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("no SQL given: pass it as an argument or via --input")
	}
	return args[0], nil
}
