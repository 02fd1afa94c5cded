package observability

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/routine/pkg/models"
)

// EventFilter selects history entries. Zero fields match everything.
type EventFilter struct {
	Since time.Time
	Until time.Time
	Types []models.EventType
	// TaskID matches a full task ID or a prefix of one.
	TaskID   string
	Priority models.Priority
}

func (f EventFilter) matches(e models.TaskEvent) bool {
	switch {
	case !f.Since.IsZero() && e.Time.Before(f.Since):
		return false
	case !f.Until.IsZero() && e.Time.After(f.Until):
		return false
	case len(f.Types) > 0 && !slices.Contains(f.Types, e.Type):
		return false
	case f.TaskID != "" && !strings.HasPrefix(e.TaskID, f.TaskID):
		return false
	case f.Priority != "" && e.Priority != f.Priority:
		return false
	}
	return true
}

// EventLog is the task history: what was added, toggled, deleted, and
// reminded, in the order it happened.
type EventLog interface {
	Append(event models.TaskEvent) error
	Read(filter EventFilter) ([]models.TaskEvent, error)
	Close() error
}

// jsonlEventLog appends one JSON object per line. Several routine processes
// may append to the same file; each event is a single O_APPEND write.
type jsonlEventLog struct {
	path string

	mu sync.Mutex
	w  *os.File
}

// NewJSONLEventLog opens the history file at path, creating it if needed.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, w: f}, nil
}

func (l *jsonlEventLog) Append(event models.TaskEvent) error {
	if !event.Type.Valid() {
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	if event.TaskID == "" {
		return errors.New("event has no task id")
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return errors.New("event log is closed")
	}
	if _, err := l.w.Write(line); err != nil {
		return fmt.Errorf("appending %s event: %w", event.Type, err)
	}
	return nil
}

// Read returns the matching events in file order. Lines that do not decode,
// or that name an event type this version does not know, are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]models.TaskEvent, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []models.TaskEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		e, ok := decodeEvent(sc.Bytes())
		if ok && filter.matches(e) {
			out = append(out, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return out, nil
}

func decodeEvent(line []byte) (models.TaskEvent, bool) {
	var e models.TaskEvent
	if len(line) == 0 || json.Unmarshal(line, &e) != nil {
		return e, false
	}
	return e, e.Type.Valid()
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	err := l.w.Close()
	l.w = nil
	if err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
