package cli

import (
	"github.com/rs/zerolog"
	"github.com/valter-silva-au/routine/internal/core"
	"github.com/valter-silva-au/routine/internal/observability"
	"github.com/valter-silva-au/routine/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Store     core.TaskStore
	Monitor   *core.ReminderMonitor
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig
	BasePath  string
	Logger    = zerolog.Nop()
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Collectors  *observability.Collectors
)
