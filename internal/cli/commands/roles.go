package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewRolesCommand creates the roles command, listing the built-in role
// catalog.
func NewRolesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List built-in roles and their permissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Role", "Description", "Permissions"})
			for _, role := range app.Permissions.ListRoles() {
				t.AppendRow(table.Row{role.Name, role.Description, strings.Join(role.Permissions, "\n")})
			}
			t.Render()
			return nil
		},
	}
}
