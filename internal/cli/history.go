package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/routine/internal/observability"
	"github.com/valter-silva-au/routine/pkg/models"
)

var (
	historySince    string
	historyTypes    []string
	historyPriority string
	historyJSON     bool
)

var eventTypeAliases = map[string]models.EventType{
	"added":    models.EventTaskAdded,
	"toggled":  models.EventTaskToggled,
	"deleted":  models.EventTaskDeleted,
	"reminder": models.EventReminderFired,
}

func parseEventType(s string) (models.EventType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := eventTypeAliases[s]; ok {
		return t, nil
	}
	if t := models.EventType(s); t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("invalid event type %q: must be one of added, toggled, deleted, reminder", s)
}

var historyCmd = &cobra.Command{
	Use:   "history [task-id]",
	Short: "Show the task history",
	Long: `Show what happened to tasks: additions, completions, deletions, and
fired reminders, oldest first. Pass a task ID or ID prefix to follow one task,
including tasks that have since been deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized")
		}

		since, err := parseSinceDuration(historySince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		filter := observability.EventFilter{Since: since}
		if len(args) > 0 {
			filter.TaskID = strings.TrimSpace(args[0])
		}
		for _, raw := range historyTypes {
			t, err := parseEventType(raw)
			if err != nil {
				return err
			}
			filter.Types = append(filter.Types, t)
		}
		if historyPriority != "" {
			p, err := models.ParsePriority(historyPriority)
			if err != nil {
				return err
			}
			filter.Priority = p
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			if events == nil {
				events = []models.TaskEvent{}
			}
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting history as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(events) == 0 {
			fmt.Fprintln(out, "No history.")
			return nil
		}
		fmt.Fprintf(out, "%-16s %-14s %-8s %s\n", "WHEN", "EVENT", "TASK", "DETAIL")
		for _, e := range events {
			fmt.Fprintf(out, "%-16s %-14s %-8s %s\n", e.Time.Local().Format("2006-01-02 15:04"), e.Type, shortID(e.TaskID), eventDetail(e))
		}
		return nil
	},
}

func eventDetail(e models.TaskEvent) string {
	switch e.Type {
	case models.EventTaskAdded, models.EventReminderFired:
		return fmt.Sprintf("%s %q [%s]", e.Due, e.Title, e.Priority)
	case models.EventTaskToggled:
		if e.Completed != nil && *e.Completed {
			return "completed"
		}
		return "reopened"
	}
	return ""
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "7d", "Time window (e.g. 7d, 30d, 24h)")
	historyCmd.Flags().StringSliceVar(&historyTypes, "type", nil, "Only these events: added, toggled, deleted, reminder")
	historyCmd.Flags().StringVarP(&historyPriority, "priority", "p", "", "Only events for tasks of this priority")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output history as JSON")
	rootCmd.AddCommand(historyCmd)
}
