package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/routine/pkg/models"
)

// --- Test doubles shared by the core tests ---

type memBlobStore struct {
	mu      sync.Mutex
	data    map[string]string
	sets    int
	failGet bool
	failSet bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: make(map[string]string)}
}

func (m *memBlobStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", false, errors.New("get failed")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memBlobStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("set failed")
	}
	m.data[key] = value
	m.sets++
	return nil
}

func (m *memBlobStore) raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memBlobStore) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

type fakeEventLogger struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (f *fakeEventLogger) Append(event models.TaskEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventLogger) recorded() []models.TaskEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TaskEvent(nil), f.events...)
}

func (f *fakeEventLogger) types() []models.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.EventType, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

type fakeTone struct {
	mu    sync.Mutex
	plays int
	err   error
	panic bool
}

func (f *fakeTone) Play(context.Context) error {
	f.mu.Lock()
	f.plays++
	f.mu.Unlock()
	if f.panic {
		panic("audio device exploded")
	}
	return f.err
}

func (f *fakeTone) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

type fakeSpeech struct {
	available bool
	err       error

	mu     sync.Mutex
	spoken []string
}

func (f *fakeSpeech) Available() bool { return f.available }

func (f *fakeSpeech) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return f.err
}

func (f *fakeSpeech) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, _ models.Task, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

type fakeObserver struct {
	mu         sync.Mutex
	fired      map[string]int
	scans      int
	lastCounts [2]int
}

func (f *fakeObserver) ReminderFired(priority string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fired == nil {
		f.fired = make(map[string]int)
	}
	f.fired[priority]++
}

func (f *fakeObserver) ScanCompleted(_ time.Duration, pending, completed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	f.lastCounts = [2]int{pending, completed}
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// at returns today's date at hh:mm in UTC.
func at(hh, mm int) time.Time {
	return time.Date(2025, 3, 14, hh, mm, 0, 0, time.UTC)
}

// sequentialIDs returns an ID generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(blobs *memBlobStore) TaskStore {
	return NewTaskStore(blobs, TaskStoreOptions{
		Key:    "tasks",
		Logger: zerolog.Nop(),
		NewID:  sequentialIDs(),
	})
}
