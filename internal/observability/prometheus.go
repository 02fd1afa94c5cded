package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors groups the prometheus metrics exported by the headless watcher.
// Each instance owns its registry so tests can build as many as they like.
type Collectors struct {
	registry *prometheus.Registry

	// remindersFired counts fired reminders by task priority.
	remindersFired *prometheus.CounterVec

	// scanDuration tracks how long a monitor scan takes, side effects excluded.
	scanDuration prometheus.Histogram

	// tasks reports the task count by state ("pending", "completed") after each scan.
	tasks *prometheus.GaugeVec
}

// NewCollectors registers the routine metrics on a fresh registry.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		remindersFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "routine_reminders_fired_total",
			Help: "The total number of reminders fired",
		}, []string{"priority"}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "routine_scan_duration_seconds",
			Help:    "Duration of reminder monitor scans",
			Buckets: prometheus.DefBuckets,
		}),
		tasks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "routine_tasks",
			Help: "Number of tasks by state",
		}, []string{"state"}),
	}
}

// ReminderFired increments the fired counter for the given priority.
func (c *Collectors) ReminderFired(priority string) {
	c.remindersFired.WithLabelValues(priority).Inc()
}

// ScanCompleted records a scan's duration and the task counts it observed.
func (c *Collectors) ScanCompleted(d time.Duration, pending, completed int) {
	c.scanDuration.Observe(d.Seconds())
	c.tasks.WithLabelValues("pending").Set(float64(pending))
	c.tasks.WithLabelValues("completed").Set(float64(completed))
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collectors in the prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
