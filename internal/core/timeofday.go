package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/routine/pkg/models"
)

// TimeOfDayLayout is the zero-padded 24-hour HH:MM layout used for due times.
const TimeOfDayLayout = "15:04"

// Clock supplies the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FormatTimeOfDay renders t as zero-padded HH:MM in t's location.
func FormatTimeOfDay(t time.Time) string {
	return t.Format(TimeOfDayLayout)
}

// ParseTimeOfDay validates a user-supplied time of day and normalizes it to
// zero-padded HH:MM, so "9:05" becomes "09:05".
func ParseTimeOfDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("time of day is empty")
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 || !allDigits(hh) || !allDigits(mm) {
		return "", fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid time of day %q: hour must be 00-23", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid time of day %q: minute must be 00-59", s)
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// allDigits rejects the signs strconv.Atoi would otherwise accept.
func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsDue reports whether task should be reminded at the given HH:MM time.
// The comparison is lexicographic on zero-padded strings with no upper bound,
// so a task stays due for the rest of the day once its time has arrived.
func IsDue(task models.Task, currentTimeOfDay string) bool {
	return !task.Completed && !task.ReminderSent && task.Time <= currentTimeOfDay
}
