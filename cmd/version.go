package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Actual version and commit can be specified in build command via -ldflags.
var (
	version = "unknown"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionString() string {
	if commit == "" {
		return app + " version: " + version
	}
	return app + " version: " + version + " (" + commit + ")"
}
