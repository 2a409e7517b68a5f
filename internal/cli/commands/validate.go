package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command: the validator's verdict
// for a query, without touching a database.
func NewValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate SQL",
		Short: "Check a SQL query against the safety rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, reason := app.Validator.Validate(args[0])
			if !ok {
				return fmt.Errorf("rejected: %s", reason)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
