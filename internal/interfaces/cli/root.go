// Package cli defines the sentinel command tree: the serve command that runs
// the monitoring engine and its API, and the version command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags through cmd/sentinel.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions carries the global flags shared by every subcommand.
type RootOptions struct {
	// ConfigPath is the YAML config file.  Empty means environment-only
	// configuration (SENTINEL_* variables).
	ConfigPath string
	// LogLevel overrides log.level from the config when non-empty.
	LogLevel string
}

// NewRootCommand builds the root command with its global flags and
// subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "Patent monitoring and alerting engine",
		Long:          "sentinel watches patent event streams against user-defined watchlists,\nstores matching alerts, and delivers notifications over email, push, and webhooks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"path to the YAML config file (default: SENTINEL_* environment variables)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"override the configured log level (debug|info|warn|error)")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sentinel %s (commit %s, built %s)\n",
				Version, GitCommit, BuildDate)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
