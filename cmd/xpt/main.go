// Command xpt reads SAS XPORT v5 transport files: it lists variables, dumps
// rows and exports datasets to SQLite, PostgreSQL or Badger.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/marmos91/xptkit/cmd/xpt/commands"
	"github.com/marmos91/xptkit/internal/cli/prompt"
)

// Set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	os.Exit(exitCode(commands.Execute()))
}

// exitCode reports err on stderr and maps it to a process status. An
// interrupted run exits with 130 like a shell would.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, prompt.ErrAborted), errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "Interrupted")
		return 130
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}
