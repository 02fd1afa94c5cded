package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/routine/internal/core"
	"github.com/valter-silva-au/routine/internal/storage"
	"github.com/valter-silva-au/routine/pkg/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)

// newTestStore returns a loaded store over a temp-dir file blob.
func newTestStore(t *testing.T) core.TaskStore {
	t.Helper()
	store := core.NewTaskStore(storage.NewFileBlobStore(t.TempDir()), core.TaskStoreOptions{
		Logger: zerolog.Nop(),
	})
	store.Load()
	return store
}

func newTestMonitor(t *testing.T, store core.TaskStore) *core.ReminderMonitor {
	t.Helper()
	queue := core.NewNotificationQueue(time.Hour, nil)
	t.Cleanup(queue.Close)
	return core.NewReminderMonitor(store, core.MonitorOptions{
		Queue:        queue,
		Clock:        fixedClock{testNow},
		Logger:       zerolog.Nop(),
		SoundEnabled: true,
	})
}

// withServices points the package-level services at a fresh store and
// monitor for the duration of the test.
func withServices(t *testing.T) (core.TaskStore, *core.ReminderMonitor) {
	t.Helper()
	store := newTestStore(t)
	monitor := newTestMonitor(t, store)

	origStore, origMonitor, origConfig := Store, Monitor, Config
	Store, Monitor, Config = store, monitor, core.DefaultGlobalConfig()
	t.Cleanup(func() {
		Store, Monitor, Config = origStore, origMonitor, origConfig
	})
	return store, monitor
}

// runCmd calls cmd's RunE directly with args and returns what it printed.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func mustAdd(t *testing.T, store core.TaskStore, title, due string, p models.Priority) models.Task {
	t.Helper()
	task, ok := store.Add(title, due, p)
	if !ok {
		t.Fatalf("Add(%q, %q) rejected", title, due)
	}
	return task
}
