// Package cli implements the psyctl command line: bank file maintenance and
// a terminal questionnaire runner.
package cli

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "psyctl",
	Short:         "Adaptive questionnaire tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
