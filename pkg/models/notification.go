package models

import "time"

// Notification is a transient advisory message shown to the user after a
// reminder fires. Notifications are never persisted.
type Notification struct {
	ID        uint64    `json:"id"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
