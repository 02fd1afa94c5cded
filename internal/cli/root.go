package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "routine",
	Short: "Routine - a terminal task reminder",
	Long: `Routine keeps a list of things to do at set times of day and reminds you
when their time has passed: an on-screen notice, a short tone, and a spoken
message.

Run without arguments to open the interactive widget. Subcommands manage
the list from scripts, run a headless reminder watcher, or serve the list to
AI assistants over MCP.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWidget()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "routine %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// IsInteractive reports whether args (without the program name) open the
// widget, which owns the terminal and so must not share it with log output.
func IsInteractive(args []string) bool {
	return len(args) == 0 || args[0] == uiCmd.Name()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
