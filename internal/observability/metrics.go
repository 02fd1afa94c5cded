package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/routine/pkg/models"
)

// Metrics holds counts derived from the event log.
type Metrics struct {
	TasksAdded          int            `json:"tasks_added" yaml:"tasks_added"`
	TasksCompleted      int            `json:"tasks_completed" yaml:"tasks_completed"`
	TasksReopened       int            `json:"tasks_reopened" yaml:"tasks_reopened"`
	TasksDeleted        int            `json:"tasks_deleted" yaml:"tasks_deleted"`
	RemindersFired      int            `json:"reminders_fired" yaml:"reminders_fired"`
	RemindersByPriority map[string]int `json:"reminders_by_priority" yaml:"reminders_by_priority"`
	EventCount          int            `json:"event_count" yaml:"event_count"`
	OldestEvent         *time.Time     `json:"oldest_event,omitempty" yaml:"oldest_event,omitempty"`
	NewestEvent         *time.Time     `json:"newest_event,omitempty" yaml:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{RemindersByPriority: make(map[string]int)}
	m.EventCount = len(events)

	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case models.EventTaskAdded:
			m.TasksAdded++
		case models.EventTaskToggled:
			switch {
			case event.Completed == nil:
			case *event.Completed:
				m.TasksCompleted++
			default:
				m.TasksReopened++
			}
		case models.EventTaskDeleted:
			m.TasksDeleted++
		case models.EventReminderFired:
			m.RemindersFired++
			if event.Priority != "" {
				m.RemindersByPriority[string(event.Priority)]++
			}
		}
	}

	return m, nil
}
