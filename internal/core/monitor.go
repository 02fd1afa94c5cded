package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"github.com/valter-silva-au/routine/pkg/models"
)

const (
	// DefaultScanInterval is how often the monitor checks for due tasks.
	DefaultScanInterval = 30 * time.Second
	// DefaultNotificationExpiry is how long an advisory stays on screen.
	DefaultNotificationExpiry = 5 * time.Second

	sideEffectTimeout = 30 * time.Second
)

// ReminderMessage is the advisory text shown when a task's time has passed.
func ReminderMessage(title string) string {
	return fmt.Sprintf("⚠️ Reminder: \"%s\" - Task time has passed!", title)
}

// SpeechText is the sentence spoken for a due task.
func SpeechText(title string) string {
	return fmt.Sprintf("Attention! You have an incomplete task: %s. Please complete it now.", title)
}

// MonitorOptions configures a ReminderMonitor. Every collaborator except
// Queue may be nil, in which case that channel is skipped.
type MonitorOptions struct {
	Queue    *NotificationQueue
	Tone     TonePlayer
	Speech   SpeechSynthesizer
	Notifier ReminderNotifier
	Observer ScanObserver
	Events   EventLogger
	Clock    Clock
	Logger   zerolog.Logger

	SoundEnabled bool
}

// ReminderMonitor finds tasks whose due time has passed and fires their
// notification sequence exactly once per task.
type ReminderMonitor struct {
	store    TaskStore
	queue    *NotificationQueue
	tone     TonePlayer
	speech   SpeechSynthesizer
	notifier ReminderNotifier
	observer ScanObserver
	events   EventLogger
	clock    Clock
	log      zerolog.Logger

	sound atomic.Bool

	scanMu   sync.Mutex
	inflight sync.WaitGroup
}

// NewReminderMonitor creates a monitor over store.
func NewReminderMonitor(store TaskStore, opts MonitorOptions) *ReminderMonitor {
	if opts.Queue == nil {
		opts.Queue = NewNotificationQueue(DefaultNotificationExpiry, nil)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	m := &ReminderMonitor{
		store:    store,
		queue:    opts.Queue,
		tone:     opts.Tone,
		speech:   opts.Speech,
		notifier: opts.Notifier,
		observer: opts.Observer,
		events:   opts.Events,
		clock:    opts.Clock,
		log:      opts.Logger,
	}
	m.sound.Store(opts.SoundEnabled)
	return m
}

// Queue returns the notification queue reminders are pushed onto.
func (m *ReminderMonitor) Queue() *NotificationQueue { return m.queue }

// SetSoundEnabled switches the tone on or off for subsequent reminders.
func (m *ReminderMonitor) SetSoundEnabled(enabled bool) { m.sound.Store(enabled) }

// SoundEnabled reports the current sound setting.
func (m *ReminderMonitor) SoundEnabled() bool { return m.sound.Load() }

// ScanNow runs Scan at the monitor clock's current time.
func (m *ReminderMonitor) ScanNow() []models.Task {
	return m.Scan(m.clock.Now())
}

// Scan re-reads the store, fires reminders for every task due at now in
// store order, and returns the fired tasks as they are after the
// reminder-sent mark. Scans are serialized so overlapping callers cannot
// remind the same task twice.
func (m *ReminderMonitor) Scan(now time.Time) []models.Task {
	m.scanMu.Lock()
	defer m.scanMu.Unlock()

	start := time.Now()
	current := FormatTimeOfDay(now)

	m.store.Sync()

	var fired []models.Task
	for _, task := range m.store.Tasks() {
		if !IsDue(task, current) {
			continue
		}
		fired = append(fired, m.fire(task))
	}

	if m.observer != nil {
		pending, completed := PartitionTasks(m.store.Tasks())
		m.observer.ScanCompleted(time.Since(start), len(pending), len(completed))
	}
	if len(fired) > 0 {
		m.log.Info().Int("fired", len(fired)).Str("at", current).Msg("reminders fired")
	}
	return fired
}

// fire runs the notification sequence for one task: advisory, tone, speech,
// then the reminder-sent mark. Tone, speech, and webhook run detached and
// their failures are only logged.
func (m *ReminderMonitor) fire(task models.Task) models.Task {
	message := ReminderMessage(task.Title)
	m.queue.Push(task.ID, message)

	if m.tone != nil && m.sound.Load() {
		m.dispatch("tone", task, func(ctx context.Context) error {
			return m.tone.Play(ctx)
		})
	}
	if m.speech != nil && m.speech.Available() {
		text := SpeechText(task.Title)
		m.dispatch("speech", task, func(ctx context.Context) error {
			return m.speech.Speak(ctx, text)
		})
	}

	if m.store.MarkReminderSent(task.ID) {
		task.ReminderSent = true
	}

	if m.notifier != nil {
		m.dispatch("webhook", task, func(ctx context.Context) error {
			return m.notifier.Notify(ctx, task, message)
		})
	}
	if m.observer != nil {
		m.observer.ReminderFired(string(task.Priority))
	}
	if m.events != nil {
		if err := m.events.Append(models.ReminderFiredEvent(task)); err != nil {
			m.log.Warn().Err(err).Msg("recording reminder event failed")
		}
	}
	m.log.Debug().Str("task_id", task.ID).Str("time", task.Time).Msg("reminder fired")
	return task
}

// dispatch runs fn on its own goroutine. A panic inside fn is recovered and
// logged like an error.
func (m *ReminderMonitor) dispatch(channel string, task models.Task, fn func(ctx context.Context) error) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		var err error
		if r := panics.Try(func() { err = fn(ctx) }); r != nil {
			err = r.AsError()
		}
		if err != nil {
			m.log.Warn().Err(err).Str("channel", channel).Str("task_id", task.ID).Msg("reminder side effect failed")
		}
	}()
}

// Wait blocks until every dispatched side effect has finished. One-shot
// commands call it so a spoken reminder is not cut off by process exit.
func (m *ReminderMonitor) Wait() {
	m.inflight.Wait()
}
