package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/routine/internal/core"
	"github.com/valter-silva-au/routine/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	addAt       string
	addPriority string

	listStatus string
	listOutput string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task due at a time of day",
	Long: `Add a task with a title, a due time of day (HH:MM, 24-hour), and a
priority (high, medium, or low; medium by default).

A blank title or a missing or malformed time is ignored: nothing is added
and a short notice is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		priority, err := models.ParsePriority(addPriority)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		task, ok := Store.Add(strings.Join(args, " "), addAt, priority)
		if !ok {
			fmt.Fprintln(out, "Nothing added: a task needs a title and a time of day (--at HH:MM).")
			return nil
		}
		fmt.Fprintf(out, "Added %s  %s  %-6s  %s\n", shortID(task.ID), task.Time, task.Priority, task.Title)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks, pending first and then completed, each in the order they
were added.

Use --status to show only pending or completed tasks and --output to choose
between a table, JSON, or YAML.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		var tasks []models.Task
		switch strings.ToLower(listStatus) {
		case "", "all":
			pending, completed := core.PartitionTasks(Store.Tasks())
			tasks = append(pending, completed...)
		case "pending":
			tasks = Store.Pending()
		case "completed":
			tasks = Store.Completed()
		default:
			return fmt.Errorf("invalid --status %q: must be pending, completed, or all", listStatus)
		}
		if tasks == nil {
			tasks = []models.Task{}
		}

		out := cmd.OutOrStdout()
		switch strings.ToLower(listOutput) {
		case "", "table":
			printTaskTable(out, tasks)
			return nil
		case "json":
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		case "yaml":
			data, err := yaml.Marshal(tasks)
			if err != nil {
				return fmt.Errorf("formatting tasks as YAML: %w", err)
			}
			fmt.Fprint(out, string(data))
			return nil
		default:
			return fmt.Errorf("invalid --output %q: must be table, json, or yaml", listOutput)
		}
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark a task completed, or reopen it",
	Long: `Flip a task between pending and completed. The id may be any unique
prefix of the task ID.

Reopening a task that was already reminded arms its reminder again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		out := cmd.OutOrStdout()
		task, ok := resolveTaskArg(out, args[0])
		if !ok {
			return nil
		}
		updated, ok := Store.ToggleCompletion(task.ID)
		if !ok {
			fmt.Fprintf(out, "No task matches %q.\n", args[0])
			return nil
		}
		state := "pending"
		if updated.Completed {
			state = "completed"
		}
		fmt.Fprintf(out, "%s %s: %s\n", shortID(updated.ID), state, updated.Title)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long:    `Remove a task permanently. The id may be any unique prefix of the task ID.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		out := cmd.OutOrStdout()
		task, ok := resolveTaskArg(out, args[0])
		if !ok {
			return nil
		}
		if !Store.Delete(task.ID) {
			fmt.Fprintf(out, "No task matches %q.\n", args[0])
			return nil
		}
		fmt.Fprintf(out, "Deleted %s: %s\n", shortID(task.ID), task.Title)
		return nil
	},
}

// resolveTaskArg looks up a task by ID or unique prefix. Misses are reported
// on out and are not errors.
func resolveTaskArg(out io.Writer, arg string) (models.Task, bool) {
	task, err := Store.Resolve(arg)
	switch {
	case err == nil:
		return task, true
	case errors.Is(err, core.ErrAmbiguousID):
		fmt.Fprintf(out, "%q matches more than one task; use a longer prefix.\n", arg)
	default:
		fmt.Fprintf(out, "No task matches %q.\n", arg)
	}
	return models.Task{}, false
}

// printTaskTable prints tasks with a header row.
func printTaskTable(out io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return
	}
	fmt.Fprintf(out, "%-8s %-5s %-6s %-9s %s\n", "ID", "TIME", "PRI", "STATE", "TITLE")
	fmt.Fprintf(out, "%-8s %-5s %-6s %-9s %s\n", "--", "----", "---", "-----", "-----")
	for _, t := range tasks {
		state := "pending"
		switch {
		case t.Completed:
			state = "done"
		case t.ReminderSent:
			state = "reminded"
		}
		fmt.Fprintf(out, "%-8s %-5s %-6s %-9s %s\n", shortID(t.ID), t.Time, t.Priority, state, t.Title)
	}
}

// shortID trims UUIDs to a prefix that is still easy to type.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	addCmd.Flags().StringVar(&addAt, "at", "", "Due time of day, HH:MM (24-hour)")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", string(models.PriorityMedium), "Priority: high, medium, or low")
	listCmd.Flags().StringVar(&listStatus, "status", "all", "Filter by status: pending, completed, or all")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json, or yaml")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(deleteCmd)
}
