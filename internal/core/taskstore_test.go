package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/routine/pkg/models"
)

// --- Load ---

func TestLoad_AbsentBlob_StartsEmpty(t *testing.T) {
	store := newTestStore(newMemBlobStore())
	store.Load()

	if got := store.Tasks(); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestLoad_MalformedBlob_StartsEmpty(t *testing.T) {
	for name, raw := range map[string]string{
		"garbage": "not json at all",
		"object":  `{"id":"1"}`,
		"partial": `[{"id":"1","title":`,
	} {
		t.Run(name, func(t *testing.T) {
			blobs := newMemBlobStore()
			blobs.data["tasks"] = raw
			store := newTestStore(blobs)
			store.Load()

			if got := store.Tasks(); len(got) != 0 {
				t.Fatalf("expected empty list for %q, got %v", raw, got)
			}
		})
	}
}

func TestLoad_ReadError_StartsEmpty(t *testing.T) {
	blobs := newMemBlobStore()
	blobs.data["tasks"] = `[{"id":"1","title":"a","time":"09:00","completed":false,"priority":"low","reminderSent":false}]`
	blobs.failGet = true
	store := newTestStore(blobs)
	store.Load()

	if got := store.Tasks(); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestLoad_ReadsExistingBlob(t *testing.T) {
	blobs := newMemBlobStore()
	blobs.data["tasks"] = `[
		{"id":"1710000000000","title":"Standup","time":"09:00","completed":false,"priority":"high","reminderSent":true},
		{"id":"1710000000001","title":"Lunch","time":"12:30","completed":true,"priority":"low","reminderSent":false}
	]`
	store := newTestStore(blobs)
	store.Load()

	tasks := store.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	want := models.Task{ID: "1710000000000", Title: "Standup", Time: "09:00", Priority: models.PriorityHigh, ReminderSent: true}
	if tasks[0] != want {
		t.Errorf("tasks[0] = %+v, want %+v", tasks[0], want)
	}
	if !tasks[1].Completed || tasks[1].Priority != models.PriorityLow {
		t.Errorf("tasks[1] = %+v", tasks[1])
	}
}

func TestLoad_DropsDuplicateAndEmptyIDs(t *testing.T) {
	blobs := newMemBlobStore()
	blobs.data["tasks"] = `[
		{"id":"a","title":"first","time":"09:00","priority":"high"},
		{"id":"","title":"no id","time":"09:00","priority":"high"},
		{"id":"a","title":"second","time":"10:00","priority":"low"},
		{"id":"b","title":"weird priority","time":"11:00","priority":"urgent"}
	]`
	store := newTestStore(blobs)
	store.Load()

	tasks := store.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %v", len(tasks), tasks)
	}
	if tasks[0].Title != "first" {
		t.Errorf("expected first occurrence kept, got %q", tasks[0].Title)
	}
	if tasks[1].Priority != models.PriorityMedium {
		t.Errorf("unknown priority should load as medium, got %q", tasks[1].Priority)
	}
}

// --- Add ---

func TestAdd_PersistsAndAppends(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	store.Load()

	task, ok := store.Add("Write report", "14:00", models.PriorityHigh)
	if !ok {
		t.Fatal("expected add to succeed")
	}
	if task.ID != "id-1" || task.Title != "Write report" || task.Time != "14:00" ||
		task.Priority != models.PriorityHigh || task.Completed || task.ReminderSent {
		t.Errorf("unexpected task %+v", task)
	}

	raw, ok := blobs.raw("tasks")
	if !ok {
		t.Fatal("expected blob to be written")
	}
	var persisted []models.Task
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("persisted blob is not JSON: %v", err)
	}
	if len(persisted) != 1 || persisted[0] != task {
		t.Errorf("persisted = %+v, want [%+v]", persisted, task)
	}
}

func TestAdd_UsesOriginalFieldNames(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	store.Add("x", "08:00", models.PriorityLow)

	raw, _ := blobs.raw("tasks")
	var generic []map[string]any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"id", "title", "time", "completed", "priority", "reminderSent"} {
		if _, ok := generic[0][field]; !ok {
			t.Errorf("persisted task missing field %q: %s", field, raw)
		}
	}
}

func TestAdd_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		title string
		time  string
	}{
		{"empty title", "", "10:00"},
		{"whitespace title", "   \t", "10:00"},
		{"missing time", "Call mom", ""},
		{"bad time", "Call mom", "25:00"},
		{"bad minutes", "Call mom", "10:7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := newMemBlobStore()
			store := newTestStore(blobs)

			if _, ok := store.Add(tt.title, tt.time, models.PriorityMedium); ok {
				t.Fatal("expected add to be rejected")
			}
			if len(store.Tasks()) != 0 {
				t.Error("rejected add must not change the list")
			}
			if blobs.setCount() != 0 {
				t.Error("rejected add must not persist")
			}
		})
	}
}

func TestAdd_KeepsTitleUntrimmedAndNormalizesTime(t *testing.T) {
	store := newTestStore(newMemBlobStore())

	task, ok := store.Add("  stretch  ", "9:05", "")
	if !ok {
		t.Fatal("expected add to succeed")
	}
	if task.Title != "  stretch  " {
		t.Errorf("title = %q, want untrimmed", task.Title)
	}
	if task.Time != "09:05" {
		t.Errorf("time = %q, want 09:05", task.Time)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("empty priority should default to medium, got %q", task.Priority)
	}
}

func TestAdd_SkipsCollidingIDs(t *testing.T) {
	ids := []string{"dup", "dup", "", "fresh"}
	store := NewTaskStore(newMemBlobStore(), TaskStoreOptions{
		Logger: zerolog.Nop(),
		NewID: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	})

	first, _ := store.Add("a", "10:00", models.PriorityLow)
	second, _ := store.Add("b", "10:00", models.PriorityLow)
	if first.ID != "dup" || second.ID != "fresh" {
		t.Errorf("ids = %q, %q; want dup, fresh", first.ID, second.ID)
	}
}

func TestAdd_PersistFailureKeepsTaskInMemory(t *testing.T) {
	blobs := newMemBlobStore()
	blobs.failSet = true
	store := newTestStore(blobs)

	if _, ok := store.Add("offline", "10:00", models.PriorityHigh); !ok {
		t.Fatal("persist failures are not reported to the caller")
	}
	if len(store.Tasks()) != 1 {
		t.Error("task should remain in memory after a failed persist")
	}
}

// --- ToggleCompletion ---

func TestToggleCompletion(t *testing.T) {
	store := newTestStore(newMemBlobStore())
	task, _ := store.Add("Gym", "07:00", models.PriorityMedium)
	store.MarkReminderSent(task.ID)

	done, ok := store.ToggleCompletion(task.ID)
	if !ok || !done.Completed {
		t.Fatalf("expected completed task, got %+v ok=%v", done, ok)
	}
	if !done.ReminderSent {
		t.Error("completing must not clear ReminderSent")
	}

	reopened, ok := store.ToggleCompletion(task.ID)
	if !ok || reopened.Completed {
		t.Fatalf("expected incomplete task, got %+v", reopened)
	}
	if reopened.ReminderSent {
		t.Error("re-opening must clear ReminderSent")
	}
}

func TestToggleCompletion_UnknownID(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	store.Add("a", "10:00", models.PriorityLow)
	before := blobs.setCount()

	if _, ok := store.ToggleCompletion("nope"); ok {
		t.Error("expected unknown id to be ignored")
	}
	if blobs.setCount() != before {
		t.Error("unknown id must not persist")
	}
}

// --- Delete ---

func TestDelete(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	a, _ := store.Add("a", "10:00", models.PriorityLow)
	b, _ := store.Add("b", "11:00", models.PriorityLow)
	c, _ := store.Add("c", "12:00", models.PriorityLow)

	if !store.Delete(b.ID) {
		t.Fatal("expected delete to succeed")
	}
	tasks := store.Tasks()
	if len(tasks) != 2 || tasks[0].ID != a.ID || tasks[1].ID != c.ID {
		t.Errorf("unexpected remaining tasks %v", tasks)
	}
	if store.Delete(b.ID) {
		t.Error("second delete of the same id should be a no-op")
	}

	raw, _ := blobs.raw("tasks")
	var persisted []models.Task
	_ = json.Unmarshal([]byte(raw), &persisted)
	if len(persisted) != 2 {
		t.Errorf("expected 2 persisted tasks, got %d", len(persisted))
	}
}

func TestDelete_LastTaskPersistsEmptyArray(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	task, _ := store.Add("only", "10:00", models.PriorityLow)
	store.Delete(task.ID)

	if raw, _ := blobs.raw("tasks"); raw != "[]" {
		t.Errorf("blob = %q, want []", raw)
	}
}

// --- Queries ---

func TestPendingAndCompleted_KeepInsertionOrder(t *testing.T) {
	store := newTestStore(newMemBlobStore())
	a, _ := store.Add("a", "10:00", models.PriorityLow)
	b, _ := store.Add("b", "09:00", models.PriorityHigh)
	c, _ := store.Add("c", "08:00", models.PriorityMedium)
	store.ToggleCompletion(b.ID)

	pending := store.Pending()
	if len(pending) != 2 || pending[0].ID != a.ID || pending[1].ID != c.ID {
		t.Errorf("pending = %v", pending)
	}
	completed := store.Completed()
	if len(completed) != 1 || completed[0].ID != b.ID {
		t.Errorf("completed = %v", completed)
	}
}

func TestTasks_ReturnsCopy(t *testing.T) {
	store := newTestStore(newMemBlobStore())
	store.Add("a", "10:00", models.PriorityLow)

	snapshot := store.Tasks()
	snapshot[0].Title = "mutated"

	if got, _ := store.Get("id-1"); got.Title != "a" {
		t.Errorf("store was mutated through snapshot: %q", got.Title)
	}
}

func TestResolve(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz789"}
	store := NewTaskStore(newMemBlobStore(), TaskStoreOptions{
		Logger: zerolog.Nop(),
		NewID: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	})
	for _, title := range []string{"one", "two", "three"} {
		store.Add(title, "10:00", models.PriorityLow)
	}

	if task, err := store.Resolve("abc123"); err != nil || task.Title != "one" {
		t.Errorf("full id: %+v, %v", task, err)
	}
	if task, err := store.Resolve("x"); err != nil || task.Title != "three" {
		t.Errorf("unique prefix: %+v, %v", task, err)
	}
	if _, err := store.Resolve("ab"); !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("expected ErrAmbiguousID, got %v", err)
	}
	if _, err := store.Resolve("q"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := store.Resolve(" "); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound for blank id, got %v", err)
	}
}

// --- Subscribe ---

func TestSubscribe_ReceivesChangesAfterPersist(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	changes, unsubscribe := store.Subscribe()
	defer unsubscribe()

	task, _ := store.Add("a", "10:00", models.PriorityLow)
	c := <-changes
	if c.Kind != ChangeAdded || c.TaskID != task.ID {
		t.Errorf("unexpected change %+v", c)
	}
	if blobs.setCount() != 1 {
		t.Error("change must be published after the blob is written")
	}

	store.ToggleCompletion(task.ID)
	if c := <-changes; c.Kind != ChangeToggled {
		t.Errorf("expected toggled, got %+v", c)
	}
	store.Delete(task.ID)
	if c := <-changes; c.Kind != ChangeDeleted {
		t.Errorf("expected deleted, got %+v", c)
	}
}

func TestSubscribe_UnsubscribeClosesChannel(t *testing.T) {
	store := newTestStore(newMemBlobStore())
	changes, unsubscribe := store.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-changes; ok {
		t.Error("expected closed channel")
	}
	// Publishing after unsubscribe must not panic.
	store.Add("a", "10:00", models.PriorityLow)
}

func TestSubscribe_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := newTestStore(newMemBlobStore())
	_, unsubscribe := store.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer*3; i++ {
		store.Add("spam", "10:00", models.PriorityLow)
	}
	if n := len(store.Tasks()); n != subscriberBuffer*3 {
		t.Errorf("expected %d tasks, got %d", subscriberBuffer*3, n)
	}
}

// --- Events ---

func TestStore_RecordsEvents(t *testing.T) {
	events := &fakeEventLogger{}
	store := NewTaskStore(newMemBlobStore(), TaskStoreOptions{
		Logger: zerolog.Nop(),
		Events: events,
		NewID:  sequentialIDs(),
	})

	task, _ := store.Add("a", "10:00", models.PriorityLow)
	store.ToggleCompletion(task.ID)
	store.Delete(task.ID)
	store.Delete("missing")

	got := events.recorded()
	if len(got) != 3 {
		t.Fatalf("events = %+v, want added, toggled, deleted", got)
	}
	if want := models.TaskAddedEvent(task); got[0] != want {
		t.Errorf("added event = %+v, want %+v", got[0], want)
	}
	if got[1].Type != models.EventTaskToggled || got[1].Completed == nil || !*got[1].Completed {
		t.Errorf("toggled event = %+v, want completed=true", got[1])
	}
	if got[2] != models.TaskDeletedEvent(task.ID) {
		t.Errorf("deleted event = %+v", got[2])
	}
}

// --- Sync ---

// writeExternal replaces the blob the way another routine process would.
func writeExternal(t *testing.T, blobs *memBlobStore, tasks ...models.Task) {
	t.Helper()
	data, err := json.Marshal(tasks)
	if err != nil {
		t.Fatal(err)
	}
	blobs.mu.Lock()
	blobs.data["tasks"] = string(data)
	blobs.mu.Unlock()
}

func TestSync_AdoptsExternalWrite(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	store.Load()
	changes, unsubscribe := store.Subscribe()
	defer unsubscribe()

	external := models.Task{ID: "ext", Title: "from cli", Time: "08:00", Priority: models.PriorityHigh}
	writeExternal(t, blobs, external)

	if !store.Sync() {
		t.Fatal("Sync should report the external change")
	}
	if got := store.Tasks(); len(got) != 1 || got[0] != external {
		t.Errorf("Tasks() = %v, want [%v]", got, external)
	}
	if c := <-changes; c.Kind != ChangeLoaded {
		t.Errorf("unexpected change %+v", c)
	}

	if store.Sync() {
		t.Error("second Sync with an unchanged blob should report no change")
	}
}

func TestSync_KeepsListOnUnusableBlob(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	task, _ := store.Add("keep me", "10:00", models.PriorityLow)

	blobs.mu.Lock()
	blobs.data["tasks"] = "{not json"
	blobs.mu.Unlock()
	if store.Sync() {
		t.Error("malformed blob must not replace the list")
	}

	blobs.failGet = true
	if store.Sync() {
		t.Error("unreadable blob must not replace the list")
	}

	if got := store.Tasks(); len(got) != 1 || got[0].ID != task.ID {
		t.Errorf("Tasks() = %v", got)
	}
}

func TestSync_DirtyStoreKeepsUnsavedTasks(t *testing.T) {
	blobs := newMemBlobStore()
	writeExternal(t, blobs, models.Task{ID: "old", Title: "old", Time: "07:00", Priority: models.PriorityLow})
	store := newTestStore(blobs)
	store.Load()

	blobs.failSet = true
	unsaved, _ := store.Add("unsaved", "10:00", models.PriorityLow)
	if store.Sync() {
		t.Error("Sync must not discard tasks that failed to persist")
	}

	blobs.failSet = false
	store.Add("second", "11:00", models.PriorityLow)
	if _, ok := store.Get(unsaved.ID); !ok {
		t.Error("unsaved task lost once writes recovered")
	}
	raw, _ := blobs.raw("tasks")
	var persisted []models.Task
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 3 {
		t.Errorf("persisted %d tasks, want 3", len(persisted))
	}
}

func TestMutations_ApplyOnTopOfExternalWrites(t *testing.T) {
	blobs := newMemBlobStore()
	store := newTestStore(blobs)
	mine, _ := store.Add("mine", "09:00", models.PriorityLow)

	// Another process appends a task after our last write.
	var current []models.Task
	raw, _ := blobs.raw("tasks")
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		t.Fatal(err)
	}
	external := models.Task{ID: "ext", Title: "theirs", Time: "08:00", Priority: models.PriorityMedium}
	writeExternal(t, blobs, append(current, external)...)

	store.ToggleCompletion(mine.ID)
	store.MarkReminderSent(external.ID)

	raw, _ = blobs.raw("tasks")
	var persisted []models.Task
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 2 {
		t.Fatalf("persisted %v, the external task was overwritten", persisted)
	}
	if !persisted[0].Completed || !persisted[1].ReminderSent {
		t.Errorf("mutations not applied to the merged list: %+v", persisted)
	}
}
