package core

import (
	"context"
	"time"

	"github.com/valter-silva-au/routine/pkg/models"
)

// The interfaces below are the subsets of storage, integration, and
// observability types that core needs. Defining them here keeps core free of
// those packages; app.go supplies the implementations.

// BlobStore is the durable key/value store holding the serialized task list.
type BlobStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// EventLogger records task history. An unset Time is stamped on append.
type EventLogger interface {
	Append(event models.TaskEvent) error
}

// TonePlayer emits the short reminder tone.
type TonePlayer interface {
	Play(ctx context.Context) error
}

// SpeechSynthesizer speaks reminder text. Available reports whether the
// platform has a usable voice at all.
type SpeechSynthesizer interface {
	Available() bool
	Speak(ctx context.Context, text string) error
}

// ReminderNotifier forwards a fired reminder to an external channel.
type ReminderNotifier interface {
	Notify(ctx context.Context, task models.Task, message string) error
}

// ScanObserver receives monitor measurements.
type ScanObserver interface {
	ReminderFired(priority string)
	ScanCompleted(d time.Duration, pending, completed int)
}
