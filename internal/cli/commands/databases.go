package commands

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewDatabasesCommand creates the databases command, a pure projection of
// the configured catalog.
func NewDatabasesCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "databases",
		Short: "List configured databases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := app.Registry.ListDatabases()

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Type", "Read-only", "Source", "Description"})
			for _, info := range infos {
				t.AppendRow(table.Row{info.Name, info.Type, info.ReadOnly, info.Source, info.Description})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json")
	return cmd
}
