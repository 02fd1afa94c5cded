package core

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/routine/pkg/models"
	"pgregory.net/rapid"
)

func priorityGenerator() *rapid.Generator[models.Priority] {
	return rapid.SampledFrom(models.Priorities)
}

func timeOfDayGenerator() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		h := rapid.IntRange(0, 23).Draw(t, "hour")
		m := rapid.IntRange(0, 59).Draw(t, "minute")
		return fmt.Sprintf("%02d:%02d", h, m)
	})
}

func titleGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,20}`)
}

// Feature: routine, Property 1: Valid Add Grows The List By One
// For any non-blank title and valid due time, Add SHALL append exactly one
// task that is incomplete, unreminded, and carries the chosen priority.
func TestProperty_ValidAddGrowsByOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestStore(newMemBlobStore())
		existing := rapid.IntRange(0, 5).Draw(rt, "existing")
		for i := 0; i < existing; i++ {
			store.Add(fmt.Sprintf("t%d", i), "10:00", models.PriorityLow)
		}

		title := titleGenerator().Draw(rt, "title")
		due := timeOfDayGenerator().Draw(rt, "due")
		priority := priorityGenerator().Draw(rt, "priority")

		task, ok := store.Add(title, due, priority)
		if !ok {
			rt.Fatalf("Add(%q, %q) rejected", title, due)
		}
		tasks := store.Tasks()
		if len(tasks) != existing+1 {
			rt.Fatalf("count = %d, want %d", len(tasks), existing+1)
		}
		last := tasks[len(tasks)-1]
		if last != task || last.Completed || last.ReminderSent || last.Priority != priority || last.Time != due {
			rt.Fatalf("unexpected new task %+v", last)
		}
	})
}

// Feature: routine, Property 2: Invalid Add Is Ignored
// For any blank title or missing due time, Add SHALL leave the list and the
// persisted blob unchanged.
func TestProperty_InvalidAddIgnored(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		blobs := newMemBlobStore()
		store := newTestStore(blobs)
		store.Add("seed", "10:00", models.PriorityLow)
		before := store.Tasks()
		sets := blobs.setCount()

		var title, due string
		if rapid.Bool().Draw(rt, "blankTitle") {
			title = rapid.StringMatching(`[ \t]{0,4}`).Draw(rt, "title")
			due = timeOfDayGenerator().Draw(rt, "due")
		} else {
			title = titleGenerator().Draw(rt, "title")
			due = ""
		}

		if _, ok := store.Add(title, due, priorityGenerator().Draw(rt, "priority")); ok {
			rt.Fatalf("Add(%q, %q) accepted", title, due)
		}
		if !reflect.DeepEqual(store.Tasks(), before) {
			rt.Fatal("list changed after rejected add")
		}
		if blobs.setCount() != sets {
			rt.Fatal("rejected add persisted")
		}
	})
}

// Feature: routine, Property 3: Re-opening Clears The Reminder Flag
// For any task and any number of toggles, a task that ends incomplete SHALL
// have ReminderSent false.
func TestProperty_ReopenClearsReminderSent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestStore(newMemBlobStore())
		task, _ := store.Add("task", "09:00", models.PriorityMedium)

		steps := rapid.SliceOfN(rapid.SampledFrom([]string{"toggle", "mark"}), 1, 12).Draw(rt, "steps")
		for _, step := range steps {
			switch step {
			case "toggle":
				store.ToggleCompletion(task.ID)
			case "mark":
				store.MarkReminderSent(task.ID)
			}
			if step == "toggle" {
				got, _ := store.Get(task.ID)
				if !got.Completed && got.ReminderSent {
					rt.Fatalf("incomplete task kept ReminderSent after toggle: %+v", got)
				}
			}
		}
	})
}

// Feature: routine, Property 4: Persist/Load Round-Trip
// For any sequence of mutations, loading a fresh store from the persisted
// blob SHALL reproduce exactly the last in-memory list.
func TestProperty_PersistLoadRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		blobs := newMemBlobStore()
		store := newTestStore(blobs)

		ops := rapid.IntRange(1, 20).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			tasks := store.Tasks()
			op := rapid.IntRange(0, 3).Draw(rt, "op")
			if len(tasks) == 0 {
				op = 0
			}
			switch op {
			case 0:
				store.Add(titleGenerator().Draw(rt, "title"), timeOfDayGenerator().Draw(rt, "due"), priorityGenerator().Draw(rt, "priority"))
			case 1:
				store.ToggleCompletion(rapid.SampledFrom(tasks).Draw(rt, "toggle").ID)
			case 2:
				store.Delete(rapid.SampledFrom(tasks).Draw(rt, "delete").ID)
			case 3:
				store.MarkReminderSent(rapid.SampledFrom(tasks).Draw(rt, "mark").ID)
			}
		}

		reloaded := NewTaskStore(blobs, TaskStoreOptions{Logger: zerolog.Nop()})
		reloaded.Load()
		if !reflect.DeepEqual(reloaded.Tasks(), store.Tasks()) {
			rt.Fatalf("round-trip mismatch:\n got  %+v\n want %+v", reloaded.Tasks(), store.Tasks())
		}
	})
}

// Feature: routine, Property 5: Unique IDs
// For any number of adds, every task SHALL carry a distinct ID.
func TestProperty_UniqueIDs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := NewTaskStore(newMemBlobStore(), TaskStoreOptions{Logger: zerolog.Nop()})
		n := rapid.IntRange(1, 30).Draw(rt, "n")
		for i := 0; i < n; i++ {
			store.Add("t", "10:00", models.PriorityLow)
		}
		seen := make(map[string]bool)
		for _, task := range store.Tasks() {
			if seen[task.ID] {
				rt.Fatalf("duplicate id %q", task.ID)
			}
			seen[task.ID] = true
		}
	})
}
