package models

import (
	"fmt"
	"strings"
)

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists the valid priorities from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority converts user input into a Priority. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority %q: must be one of high, medium, low", s)
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Next cycles high -> medium -> low -> high. Unknown values restart at high.
func (p Priority) Next() Priority {
	for i, candidate := range Priorities {
		if candidate == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityHigh
}

// Prev cycles in the opposite direction to Next. Unknown values restart at
// low.
func (p Priority) Prev() Priority {
	for i, candidate := range Priorities {
		if candidate == p {
			return Priorities[(i+len(Priorities)-1)%len(Priorities)]
		}
	}
	return PriorityLow
}

// Task is a user-defined reminder. The JSON field names are the persisted
// blob format and must not change.
type Task struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	Time         string   `json:"time" yaml:"time"` // zero-padded HH:MM
	Completed    bool     `json:"completed" yaml:"completed"`
	Priority     Priority `json:"priority" yaml:"priority"`
	ReminderSent bool     `json:"reminderSent" yaml:"reminder_sent"`
}
