package models

import "time"

// EventType names an entry in the task history.
type EventType string

const (
	EventTaskAdded     EventType = "task.added"
	EventTaskToggled   EventType = "task.toggled"
	EventTaskDeleted   EventType = "task.deleted"
	EventReminderFired EventType = "reminder.fired"
)

// EventTypes lists every type the task store and reminder monitor record.
var EventTypes = []EventType{EventTaskAdded, EventTaskToggled, EventTaskDeleted, EventReminderFired}

// Valid reports whether t is one of EventTypes.
func (t EventType) Valid() bool {
	switch t {
	case EventTaskAdded, EventTaskToggled, EventTaskDeleted, EventReminderFired:
		return true
	}
	return false
}

// TaskEvent is one line of the task history. Which optional fields are set
// depends on Type: added and reminder events carry the task's title, due
// time, and priority; toggles carry Completed; deletes carry only TaskID.
type TaskEvent struct {
	Time      time.Time `json:"time"`
	Type      EventType `json:"type"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title,omitempty"`
	Due       string    `json:"due,omitempty"`
	Priority  Priority  `json:"priority,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
}

// TaskAddedEvent records a new task.
func TaskAddedEvent(t Task) TaskEvent {
	return TaskEvent{Type: EventTaskAdded, TaskID: t.ID, Title: t.Title, Due: t.Time, Priority: t.Priority}
}

// TaskToggledEvent records t's completion state after a toggle.
func TaskToggledEvent(t Task) TaskEvent {
	completed := t.Completed
	return TaskEvent{Type: EventTaskToggled, TaskID: t.ID, Completed: &completed}
}

// TaskDeletedEvent records the removal of task id.
func TaskDeletedEvent(id string) TaskEvent {
	return TaskEvent{Type: EventTaskDeleted, TaskID: id}
}

// ReminderFiredEvent records a reminder for t.
func ReminderFiredEvent(t Task) TaskEvent {
	return TaskEvent{Type: EventReminderFired, TaskID: t.ID, Title: t.Title, Due: t.Time, Priority: t.Priority}
}
