package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/routine/internal/core"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one reminder scan and exit",
	Long: `Scan the task list once and fire reminders for every incomplete task whose
time has passed and that has not been reminded yet: a printed notice, the
tone, the spoken message, and the webhook when one is configured.

The command waits for the tone and speech to finish before exiting, which
makes it suitable for a crontab entry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil || Monitor == nil {
			return fmt.Errorf("task store not initialized")
		}

		fired := Monitor.ScanNow()
		Monitor.Wait()

		out := cmd.OutOrStdout()
		if len(fired) == 0 {
			fmt.Fprintln(out, "No reminders due.")
			return nil
		}
		for _, t := range fired {
			fmt.Fprintln(out, core.ReminderMessage(t.Title))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
