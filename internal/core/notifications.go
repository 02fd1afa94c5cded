package core

import (
	"sync"
	"time"

	"github.com/valter-silva-au/routine/pkg/models"
)

// NotificationQueue holds the advisory messages currently on screen. Each
// entry removes itself after the expiry; entries are identified by a
// monotonically increasing ID so two identical messages expire independently.
type NotificationQueue struct {
	expiry   time.Duration
	onChange func()

	mu      sync.Mutex
	nextID  uint64
	entries []models.Notification
	timers  map[uint64]*time.Timer
	closed  bool
}

// NewNotificationQueue creates a queue whose entries live for expiry.
// onChange, if non-nil, is called outside the lock after every push or
// removal.
func NewNotificationQueue(expiry time.Duration, onChange func()) *NotificationQueue {
	if expiry <= 0 {
		expiry = DefaultNotificationExpiry
	}
	return &NotificationQueue{
		expiry:   expiry,
		onChange: onChange,
		timers:   make(map[uint64]*time.Timer),
	}
}

// Push appends a notification and schedules its removal.
func (q *NotificationQueue) Push(taskID, message string) models.Notification {
	q.mu.Lock()
	q.nextID++
	n := models.Notification{
		ID:        q.nextID,
		TaskID:    taskID,
		Message:   message,
		CreatedAt: time.Now(),
	}
	q.entries = append(q.entries, n)
	if !q.closed {
		id := n.ID
		q.timers[id] = time.AfterFunc(q.expiry, func() { q.Remove(id) })
	}
	q.mu.Unlock()

	q.changed()
	return n
}

// Remove deletes the entry with the given ID. It reports false when the entry
// is already gone.
func (q *NotificationQueue) Remove(id uint64) bool {
	q.mu.Lock()
	removed := q.removeLocked(id)
	q.mu.Unlock()

	if removed {
		q.changed()
	}
	return removed
}

func (q *NotificationQueue) removeLocked(id uint64) bool {
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	for i, n := range q.entries {
		if n.ID == id {
			q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the current entries, oldest first.
func (q *NotificationQueue) Active() []models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Notification, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of active entries.
func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Expire removes every entry created at or before now minus the expiry. The
// widget calls it on each clock tick so a stalled timer cannot leave a stale
// banner behind. It returns the number of entries removed.
func (q *NotificationQueue) Expire(now time.Time) int {
	cutoff := now.Add(-q.expiry)

	q.mu.Lock()
	var stale []uint64
	for _, n := range q.entries {
		if !n.CreatedAt.After(cutoff) {
			stale = append(stale, n.ID)
		}
	}
	for _, id := range stale {
		q.removeLocked(id)
	}
	q.mu.Unlock()

	if len(stale) > 0 {
		q.changed()
	}
	return len(stale)
}

// Close stops all pending expiry timers. Entries pushed afterwards are only
// removed by Remove or Expire.
func (q *NotificationQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
}

func (q *NotificationQueue) changed() {
	if q.onChange != nil {
		q.onChange()
	}
}
