package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valter-silva-au/routine/pkg/models"
)

var (
	// ErrTaskNotFound is returned by Resolve when no task matches.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAmbiguousID is returned by Resolve when a prefix matches several tasks.
	ErrAmbiguousID = errors.New("ambiguous task id")
)

// ChangeKind identifies the mutation that produced a Change.
type ChangeKind string

const (
	ChangeLoaded       ChangeKind = "loaded"
	ChangeAdded        ChangeKind = "added"
	ChangeToggled      ChangeKind = "toggled"
	ChangeDeleted      ChangeKind = "deleted"
	ChangeReminderSent ChangeKind = "reminder_sent"
)

// Change is published to subscribers after every successful mutation, once
// the new list has been persisted.
type Change struct {
	Kind   ChangeKind
	TaskID string
}

// TaskStore holds the task list and mirrors it to durable storage after
// every mutation. Each mutation first re-reads the blob, so a long-running
// process applies its change on top of whatever other routine commands have
// written since. Invalid input and unknown IDs are ignored rather than
// reported.
type TaskStore interface {
	// Load replaces the in-memory list with the persisted one. An absent or
	// malformed blob yields an empty list.
	Load()
	// Sync re-reads the blob and adopts it when it differs from memory. It
	// keeps the in-memory list when the blob is missing, unreadable, or
	// malformed, or when the last write failed. It reports whether the list
	// changed; subscribers then receive ChangeLoaded.
	Sync() bool
	// Add appends a new task. It returns false, and changes nothing, when the
	// title is blank or the due time is missing or invalid.
	Add(title, dueTime string, priority models.Priority) (models.Task, bool)
	// ToggleCompletion flips Completed. A task that becomes incomplete also
	// has ReminderSent cleared.
	ToggleCompletion(id string) (models.Task, bool)
	Delete(id string) bool
	MarkReminderSent(id string) bool

	// Tasks returns a copy of the list in insertion order.
	Tasks() []models.Task
	// Pending and Completed return the display partitions, each in
	// insertion order.
	Pending() []models.Task
	Completed() []models.Task
	Get(id string) (models.Task, bool)
	// Resolve finds a task by full ID or unique ID prefix.
	Resolve(idOrPrefix string) (models.Task, error)

	// Subscribe registers an observer. The returned function unsubscribes and
	// closes the channel.
	Subscribe() (<-chan Change, func())
}

// TaskStoreOptions configures a TaskStore.
type TaskStoreOptions struct {
	// Key is the blob key the list is stored under.
	Key    string
	Logger zerolog.Logger
	// Events may be nil.
	Events EventLogger
	// NewID generates task IDs; defaults to random UUIDs.
	NewID func() string
	// Timeout bounds each blob read or write.
	Timeout time.Duration
}

const subscriberBuffer = 16

type blobTaskStore struct {
	blobs   BlobStore
	key     string
	log     zerolog.Logger
	events  EventLogger
	newID   func() string
	timeout time.Duration

	mu    sync.Mutex
	tasks []models.Task
	// dirty is set while the last write failed and memory is ahead of the blob.
	dirty bool

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// NewTaskStore creates a TaskStore persisted through blobs. Call Load before
// use to pick up previously saved tasks.
func NewTaskStore(blobs BlobStore, opts TaskStoreOptions) TaskStore {
	if opts.Key == "" {
		opts.Key = "tasks"
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &blobTaskStore{
		blobs:   blobs,
		key:     opts.Key,
		log:     opts.Logger,
		events:  opts.Events,
		newID:   opts.NewID,
		timeout: opts.Timeout,
		tasks:   []models.Task{},
		subs:    make(map[int]chan Change),
	}
}

func (s *blobTaskStore) Load() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	tasks := []models.Task{}
	raw, found, err := s.blobs.Get(ctx, s.key)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("key", s.key).Msg("reading task blob failed, starting empty")
	case !found:
		s.log.Debug().Str("key", s.key).Msg("no task blob yet, starting empty")
	default:
		if decoded, ok := decodeTasks(raw, s.log); ok {
			tasks = decoded
		}
	}

	s.mu.Lock()
	s.tasks = tasks
	s.dirty = false
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeLoaded})
}

func (s *blobTaskStore) Sync() bool {
	s.mu.Lock()
	changed := s.syncLocked()
	s.mu.Unlock()

	if changed {
		s.publish(Change{Kind: ChangeLoaded})
	}
	return changed
}

// syncLocked is Sync without the notification. Must be called with mu held.
func (s *blobTaskStore) syncLocked() bool {
	if s.dirty {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	raw, found, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("re-reading task blob failed, keeping current list")
		return false
	}
	if !found {
		return false
	}
	tasks, ok := decodeTasks(raw, s.log)
	if !ok || slices.Equal(tasks, s.tasks) {
		return false
	}
	s.tasks = tasks
	return true
}

// decodeTasks parses a persisted blob. ok is false when the blob is not a
// JSON array of tasks. Entries without an ID, and repeats of an ID already
// seen, are dropped.
func decodeTasks(raw string, log zerolog.Logger) (tasks []models.Task, ok bool) {
	var decoded []models.Task
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		log.Warn().Err(err).Msg("task blob is malformed")
		return nil, false
	}

	tasks = make([]models.Task, 0, len(decoded))
	seen := make(map[string]bool, len(decoded))
	for _, t := range decoded {
		if t.ID == "" || seen[t.ID] {
			log.Warn().Str("task_id", t.ID).Msg("dropping task with missing or duplicate id")
			continue
		}
		seen[t.ID] = true
		if !t.Priority.Valid() {
			t.Priority = models.PriorityMedium
		}
		tasks = append(tasks, t)
	}
	return tasks, true
}

func (s *blobTaskStore) Add(title, dueTime string, priority models.Priority) (models.Task, bool) {
	if strings.TrimSpace(title) == "" {
		return models.Task{}, false
	}
	due, err := ParseTimeOfDay(dueTime)
	if err != nil {
		return models.Task{}, false
	}
	if !priority.Valid() {
		priority = models.PriorityMedium
	}

	s.mu.Lock()
	s.syncLocked()
	task := models.Task{
		ID:       s.uniqueID(),
		Title:    title,
		Time:     due,
		Priority: priority,
	}
	s.tasks = append(s.tasks, task)
	s.persistLocked()
	s.mu.Unlock()

	s.record(models.TaskAddedEvent(task))
	s.publish(Change{Kind: ChangeAdded, TaskID: task.ID})
	return task, true
}

// uniqueID draws IDs until one is unused. Must be called with mu held.
func (s *blobTaskStore) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
}

func (s *blobTaskStore) ToggleCompletion(id string) (models.Task, bool) {
	s.mu.Lock()
	s.syncLocked()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Task{}, false
	}
	t := &s.tasks[i]
	t.Completed = !t.Completed
	if !t.Completed {
		t.ReminderSent = false
	}
	task := *t
	s.persistLocked()
	s.mu.Unlock()

	s.record(models.TaskToggledEvent(task))
	s.publish(Change{Kind: ChangeToggled, TaskID: task.ID})
	return task, true
}

func (s *blobTaskStore) Delete(id string) bool {
	s.mu.Lock()
	s.syncLocked()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.persistLocked()
	s.mu.Unlock()

	s.record(models.TaskDeletedEvent(id))
	s.publish(Change{Kind: ChangeDeleted, TaskID: id})
	return true
}

func (s *blobTaskStore) MarkReminderSent(id string) bool {
	s.mu.Lock()
	s.syncLocked()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks[i].ReminderSent = true
	s.persistLocked()
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeReminderSent, TaskID: id})
	return true
}

func (s *blobTaskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *blobTaskStore) Pending() []models.Task {
	pending, _ := PartitionTasks(s.Tasks())
	return pending
}

func (s *blobTaskStore) Completed() []models.Task {
	_, completed := PartitionTasks(s.Tasks())
	return completed
}

func (s *blobTaskStore) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

func (s *blobTaskStore) Resolve(idOrPrefix string) (models.Task, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return models.Task{}, fmt.Errorf("%w: empty id", ErrTaskNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(idOrPrefix); i >= 0 {
		return s.tasks[i], nil
	}

	var matches []models.Task
	for _, t := range s.tasks {
		if strings.HasPrefix(t.ID, idOrPrefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguousID, idOrPrefix, len(matches))
	}
}

func (s *blobTaskStore) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked overwrites the blob with the full list. Failures are logged
// and mark the store dirty, so the in-memory list wins until a write
// succeeds. Must be called with mu held so writes land in mutation order.
func (s *blobTaskStore) persistLocked() {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		s.dirty = true
		s.log.Error().Err(err).Msg("encoding task list failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.blobs.Set(ctx, s.key, string(data)); err != nil {
		s.dirty = true
		s.log.Error().Err(err).Str("key", s.key).Msg("persisting task list failed")
		return
	}
	s.dirty = false
}

func (s *blobTaskStore) record(event models.TaskEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(event); err != nil {
		s.log.Warn().Err(err).Str("event", string(event.Type)).Msg("recording event failed")
	}
}

func (s *blobTaskStore) Subscribe() (<-chan Change, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Change, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// publish never blocks: a subscriber whose buffer is full misses the change
// and catches up by reading Tasks on the next one it receives.
func (s *blobTaskStore) publish(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// PartitionTasks splits tasks into pending and completed groups, each in
// insertion order.
func PartitionTasks(tasks []models.Task) (pending, completed []models.Task) {
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}
