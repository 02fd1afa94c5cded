package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("debug", "json", &buf)

	log.Debug().Str("task_id", "abc").Msg("loaded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "loaded" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["task_id"] != "abc" {
		t.Errorf("task_id = %v", entry["task_id"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)

	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
	log.Warn().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn message, got %q", buf.String())
	}
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("chatty", "json", &buf)

	log.Debug().Msg("debug")
	log.Info().Msg("info")
	out := buf.String()
	if strings.Contains(out, `"message":"debug"`) {
		t.Errorf("debug should be filtered at default level: %q", out)
	}
	if !strings.Contains(out, `"message":"info"`) {
		t.Errorf("expected info message: %q", out)
	}
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info", "console", &buf)

	log.Info().Msg("hello")
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("expected console output, got JSON %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestCollectors(t *testing.T) {
	c := NewCollectors()

	c.ReminderFired("high")
	c.ReminderFired("high")
	c.ReminderFired("low")
	c.ScanCompleted(20*time.Millisecond, 3, 2)

	if got := testutil.ToFloat64(c.remindersFired.WithLabelValues("high")); got != 2 {
		t.Errorf("high reminders = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.remindersFired.WithLabelValues("low")); got != 1 {
		t.Errorf("low reminders = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.tasks.WithLabelValues("pending")); got != 3 {
		t.Errorf("pending gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.tasks.WithLabelValues("completed")); got != 2 {
		t.Errorf("completed gauge = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(c.scanDuration); n != 1 {
		t.Errorf("expected 1 histogram series, got %d", n)
	}
}
