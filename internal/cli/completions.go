package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/routine/pkg/models"
)

// completeTaskIDs lists task IDs with their title as the description. The
// first argument is the only one completed.
func completeTaskIDs(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Store == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, task := range Store.Tasks() {
		if toComplete == "" || strings.HasPrefix(task.ID, toComplete) {
			ids = append(ids, task.ID+"\t"+task.Time+" "+task.Title)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completePriorities returns the priority values.
func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, len(models.Priorities))
	for _, p := range models.Priorities {
		out = append(out, string(p))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeStatuses returns the list --status values.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"all\tPending then completed",
		"pending\tNot yet done",
		"completed\tDone",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeOutputFormats returns the list --output values.
func completeOutputFormats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
}

// completeEventTypes returns the history --type values.
func completeEventTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"added", "toggled", "deleted", "reminder"}, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	toggleCmd.ValidArgsFunction = completeTaskIDs
	deleteCmd.ValidArgsFunction = completeTaskIDs
	_ = addCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = listCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = listCmd.RegisterFlagCompletionFunc("output", completeOutputFormats)
	_ = historyCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = historyCmd.RegisterFlagCompletionFunc("type", completeEventTypes)
}
