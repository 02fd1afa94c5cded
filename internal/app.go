// Package internal provides the App struct that wires all components of
// routine together and initializes the CLI layer.
package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/routine/internal/cli"
	"github.com/valter-silva-au/routine/internal/core"
	"github.com/valter-silva-au/routine/internal/integration"
	"github.com/valter-silva-au/routine/internal/observability"
	"github.com/valter-silva-au/routine/internal/storage"
	"github.com/valter-silva-au/routine/pkg/models"
)

// The event log receives the store's and monitor's history directly.
var _ core.EventLogger = observability.EventLog(nil)

const (
	// HomeEnv overrides the base directory.
	HomeEnv = "ROUTINE_HOME"

	eventLogFile = ".routine_events.jsonl"
	logFile      = "routine.log"
	redisPrefix  = "routine:"
)

// Options controls environment-dependent wiring.
type Options struct {
	// Interactive sends logs to <base>/routine.log instead of stderr, since
	// the widget owns the terminal.
	Interactive bool
	// LogWriter overrides the log destination entirely.
	LogWriter io.Writer
	// CommandRunner overrides how external players are run.
	CommandRunner integration.CommandRunner
}

// App holds all service dependencies for routine.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig
	Logger    zerolog.Logger

	// Storage layer
	Blobs storage.BlobStore

	// Core services
	Store   core.TaskStore
	Queue   *core.NotificationQueue
	Monitor *core.ReminderMonitor

	// Integration services
	Runner integration.CommandRunner
	Tone   *integration.TonePlayer
	Speech *integration.SpeechSynthesizer

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
	Collectors  *observability.Collectors

	logFile *os.File
}

// NewApp creates and wires all components of routine. basePath is the
// directory holding .routineconfig, the event log, and the task file.
func NewApp(basePath string, opts Options) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Logging ---
	logOut := opts.LogWriter
	if logOut == nil {
		logOut = os.Stderr
		if opts.Interactive {
			f, err := os.OpenFile(filepath.Join(basePath, logFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				// Non-fatal: a widget without logs still works.
				logOut = io.Discard
			} else {
				app.logFile = f
				logOut = f
			}
		}
	}
	app.Logger = observability.NewLogger(cfg.Log.Level, cfg.Log.Format, logOut)

	// --- Storage layer ---
	switch cfg.Storage.Backend {
	case models.BackendRedis:
		app.Blobs = storage.NewRedisBlobStore(storage.RedisOptions{
			Addr:   cfg.Storage.RedisAddr,
			DB:     cfg.Storage.RedisDB,
			Prefix: redisPrefix,
		})
	default:
		app.Blobs = storage.NewFileBlobStore(basePath)
	}

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, eventLogFile))
	if err != nil {
		// Non-fatal: disable history if the log can't be created.
		app.Logger.Warn().Err(err).Msg("event log unavailable, history disabled")
		app.EventLog = nil
	}
	var history core.EventLogger
	if app.EventLog != nil {
		history = app.EventLog
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	app.Collectors = observability.NewCollectors()

	// --- Core services ---
	app.Store = core.NewTaskStore(app.Blobs, core.TaskStoreOptions{
		Key:    cfg.Storage.Key,
		Logger: app.Logger.With().Str("component", "store").Logger(),
		Events: history,
	})
	app.Store.Load()

	app.Queue = core.NewNotificationQueue(cfg.Reminders.Expiry, nil)

	// --- Integration services ---
	app.Runner = opts.CommandRunner
	if app.Runner == nil {
		app.Runner = integration.NewCommandRunner()
	}
	app.Tone = integration.NewTonePlayer(app.Runner, cfg.Sound.Player, os.Stderr)

	monitorOpts := core.MonitorOptions{
		Queue:        app.Queue,
		Tone:         app.Tone,
		Observer:     app.Collectors,
		Events:       history,
		Logger:       app.Logger.With().Str("component", "monitor").Logger(),
		SoundEnabled: cfg.Sound.Enabled,
	}
	if cfg.Voice.Enabled {
		app.Speech = integration.NewSpeechSynthesizer(app.Runner, cfg.Voice.Command)
		monitorOpts.Speech = app.Speech
	}
	if cfg.Notifications.WebhookURL != "" {
		app.Notifier = observability.NewWebhookNotifier(cfg.Notifications.WebhookURL)
		monitorOpts.Notifier = app.Notifier
	}
	app.Monitor = core.NewReminderMonitor(app.Store, monitorOpts)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.ConfigMgr = app.ConfigMgr
	cli.Config = cfg
	cli.Logger = app.Logger
	cli.Store = app.Store
	cli.Monitor = app.Monitor

	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.Collectors = app.Collectors

	return app, nil
}

// Close waits for in-flight reminders and releases the notification queue,
// the blob store, the event log, and the log file.
func (a *App) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.Monitor != nil {
		a.Monitor.Wait()
	}
	if a.Queue != nil {
		a.Queue.Close()
	}
	if a.Blobs != nil {
		keep(a.Blobs.Close())
	}
	if a.EventLog != nil {
		keep(a.EventLog.Close())
	}
	if a.logFile != nil {
		keep(a.logFile.Close())
	}
	return firstErr
}

// ResolveBasePath determines the base directory for routine's data. It checks
// ROUTINE_HOME, then walks up from the working directory looking for
// .routineconfig, then falls back to ~/.routine (created if missing).
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}

	if dir, err := os.Getwd(); err == nil {
		for {
			if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		cwd, _ := os.Getwd()
		return cwd
	}
	base := filepath.Join(home, ".routine")
	_ = os.MkdirAll(base, 0o755)
	return base
}
