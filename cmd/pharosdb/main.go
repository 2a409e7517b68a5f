// Command pharosdb is the CLI entry point for the guarded ERP data-access
// layer.
package main

import (
	"os"

	"github.com/pharos-labs/pharosdb/internal/cli"

	// Register the supported database engines.
	_ "github.com/pharos-labs/pharosdb/pkg/dialects/mssql"
	_ "github.com/pharos-labs/pharosdb/pkg/dialects/postgres"
	_ "github.com/pharos-labs/pharosdb/pkg/dialects/sqlite"
)

func main() {
	os.Exit(cli.Execute())
}
