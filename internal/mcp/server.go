// Package mcp provides an MCP (Model Context Protocol) server that exposes
// routine's task list and reminder check as MCP tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/routine/internal/core"
	"github.com/valter-silva-au/routine/internal/observability"
	"github.com/valter-silva-au/routine/pkg/models"
)

// ReminderScanner runs one reminder scan at the current time.
type ReminderScanner interface {
	ScanNow() []models.Task
}

// Server wraps routine services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	store       core.TaskStore
	scanner     ReminderScanner
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server. scanner and metricsCalc may be nil, in
// which case the tools that need them report an error result.
func NewServer(store core.TaskStore, scanner ReminderScanner, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:       store,
		scanner:     scanner,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "routine", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio, blocking until the client disconnects or the context
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Time         string `json:"time"`
	Priority     string `json:"priority"`
	Completed    bool   `json:"completed"`
	ReminderSent bool   `json:"reminder_sent"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter tasks by status (pending, completed, all). Defaults to all."`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type addTaskInput struct {
	Title    string `json:"title" jsonschema:"required,what to be reminded about"`
	Time     string `json:"time" jsonschema:"required,due time of day as HH:MM (24-hour)"`
	Priority string `json:"priority,omitempty" jsonschema:"high, medium, or low. Defaults to medium."`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task ID or a unique prefix of it"`
}

type taskMessageOutput struct {
	Message string      `json:"message"`
	Task    *taskOutput `json:"task,omitempty"`
}

type checkRemindersInput struct{}

type checkRemindersOutput struct {
	Fired []taskOutput `json:"fired"`
	Count int          `json:"count"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksAdded          int            `json:"tasks_added"`
	TasksCompleted      int            `json:"tasks_completed"`
	TasksReopened       int            `json:"tasks_reopened"`
	TasksDeleted        int            `json:"tasks_deleted"`
	RemindersFired      int            `json:"reminders_fired"`
	RemindersByPriority map[string]int `json:"reminders_by_priority"`
	EventCount          int            `json:"event_count"`
	OldestEvent         string         `json:"oldest_event,omitempty"`
	NewestEvent         string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List reminder tasks in insertion order with an optional status filter (pending, completed, all).",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task to be reminded about at a time of day (HH:MM). Priority is high, medium, or low.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_task",
		Description: "Flip a task between pending and completed. Re-opening a task re-arms its reminder.",
	}, s.handleToggleTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task by ID or unique ID prefix.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "check_reminders",
		Description: "Run a reminder scan now and return the tasks whose reminders fired.",
	}, s.handleCheckReminders)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get counts derived from the event log: tasks added, completed, reopened, deleted, and reminders fired by priority.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---
//
// Each handler syncs the store first so edits made by other routine
// processes since the last call are visible.

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	s.store.Sync()

	var tasks []models.Task
	switch input.Status {
	case "", "all":
		pending, completed := core.PartitionTasks(s.store.Tasks())
		tasks = append(pending, completed...)
	case "pending":
		tasks = s.store.Pending()
	case "completed":
		tasks = s.store.Completed()
	default:
		return errorResult(fmt.Sprintf("invalid status %q: must be one of pending, completed, all", input.Status)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskMessageOutput, error) {
	priority := models.PriorityMedium
	if input.Priority != "" {
		p, err := models.ParsePriority(input.Priority)
		if err != nil {
			return errorResult(err.Error()), taskMessageOutput{}, nil
		}
		priority = p
	}
	if _, err := core.ParseTimeOfDay(input.Time); err != nil {
		return errorResult(err.Error()), taskMessageOutput{}, nil
	}

	s.store.Sync()
	task, ok := s.store.Add(input.Title, input.Time, priority)
	if !ok {
		return errorResult("task not added: title must not be blank"), taskMessageOutput{}, nil
	}

	out := taskToOutput(task)
	return nil, taskMessageOutput{
		Message: fmt.Sprintf("task %s added for %s", task.ID, task.Time),
		Task:    &out,
	}, nil
}

func (s *Server) handleToggleTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskMessageOutput, error) {
	s.store.Sync()
	task, errResult := s.resolve(input.TaskID)
	if errResult != nil {
		return errResult, taskMessageOutput{}, nil
	}

	toggled, ok := s.store.ToggleCompletion(task.ID)
	if !ok {
		return errorResult(fmt.Sprintf("task %s disappeared", task.ID)), taskMessageOutput{}, nil
	}

	state := "pending"
	if toggled.Completed {
		state = "completed"
	}
	out := taskToOutput(toggled)
	return nil, taskMessageOutput{
		Message: fmt.Sprintf("task %s marked %s", toggled.ID, state),
		Task:    &out,
	}, nil
}

func (s *Server) handleDeleteTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskMessageOutput, error) {
	s.store.Sync()
	task, errResult := s.resolve(input.TaskID)
	if errResult != nil {
		return errResult, taskMessageOutput{}, nil
	}

	if !s.store.Delete(task.ID) {
		return errorResult(fmt.Sprintf("task %s disappeared", task.ID)), taskMessageOutput{}, nil
	}
	return nil, taskMessageOutput{Message: fmt.Sprintf("task %s deleted", task.ID)}, nil
}

func (s *Server) handleCheckReminders(_ context.Context, _ *gomcp.CallToolRequest, _ checkRemindersInput) (*gomcp.CallToolResult, checkRemindersOutput, error) {
	if s.scanner == nil {
		return errorResult("reminder monitor not available"), checkRemindersOutput{Fired: []taskOutput{}}, nil
	}

	s.store.Sync()
	fired := s.scanner.ScanNow()

	out := checkRemindersOutput{
		Fired: make([]taskOutput, len(fired)),
		Count: len(fired),
	}
	for i, t := range fired {
		out.Fired[i] = taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksAdded:          metrics.TasksAdded,
		TasksCompleted:      metrics.TasksCompleted,
		TasksReopened:       metrics.TasksReopened,
		TasksDeleted:        metrics.TasksDeleted,
		RemindersFired:      metrics.RemindersFired,
		RemindersByPriority: metrics.RemindersByPriority,
		EventCount:          metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

// --- Helpers ---

func (s *Server) resolve(id string) (models.Task, *gomcp.CallToolResult) {
	if id == "" {
		return models.Task{}, errorResult("task_id is required")
	}
	task, err := s.store.Resolve(id)
	switch {
	case errors.Is(err, core.ErrAmbiguousID):
		return models.Task{}, errorResult(fmt.Sprintf("%s; use a longer prefix", err))
	case err != nil:
		return models.Task{}, errorResult(err.Error())
	}
	return task, nil
}

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:           t.ID,
		Title:        t.Title,
		Time:         t.Time,
		Priority:     string(t.Priority),
		Completed:    t.Completed,
		ReminderSent: t.ReminderSent,
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{RemindersByPriority: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
