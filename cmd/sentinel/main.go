// Command sentinel is the patent monitoring engine: it polls patent event
// sources against user-defined watchlists, stores the resulting alerts, and
// delivers notifications.
package main

import (
	"fmt"
	"os"

	"github.com/turtacn/KeyIP-Sentinel/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
