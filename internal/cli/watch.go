package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/routine/internal/core"
)

var (
	watchInterval    time.Duration
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the reminder monitor without the interactive widget",
	Long: `Run the reminder monitor headless: scan once at start and then on every
scan interval, firing the tone, speech, and webhook for due tasks. Reminders
and scan results are logged instead of drawn on screen.

With --metrics-addr the watcher also serves prometheus metrics at /metrics.
Stop it with Ctrl+C or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil || Monitor == nil {
			return fmt.Errorf("task store not initialized")
		}

		interval := watchInterval
		if interval <= 0 && Config != nil {
			interval = Config.Reminders.ScanInterval
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runWatch(ctx, Monitor, interval, watchMetricsAddr)
	},
}

// runWatch scans immediately, then on a cron schedule, until ctx is done.
func runWatch(ctx context.Context, monitor *core.ReminderMonitor, interval time.Duration, metricsAddr string) error {
	if interval <= 0 {
		interval = core.DefaultScanInterval
	}
	log := Logger.With().Str("component", "watch").Logger()

	var srv *http.Server
	if metricsAddr != "" {
		if Collectors == nil {
			return fmt.Errorf("metrics collectors not initialized")
		}
		ln, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", metricsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", Collectors.Handler())
		srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	}

	scan := func() {
		fired := monitor.ScanNow()
		for _, t := range fired {
			log.Info().
				Str("task_id", t.ID).
				Str("title", t.Title).
				Str("time", t.Time).
				Str("priority", string(t.Priority)).
				Msg(core.ReminderMessage(t.Title))
		}
		log.Debug().Int("fired", len(fired)).Msg("scan complete")
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := c.AddFunc(spec, scan); err != nil {
		return fmt.Errorf("scheduling scan %q: %w", spec, err)
	}

	log.Info().Dur("interval", interval).Msg("watching for due tasks")
	scan()
	c.Start()

	<-ctx.Done()

	<-c.Stop().Done()
	monitor.Wait()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutting down metrics server")
		}
	}
	log.Info().Msg("watcher stopped")
	return nil
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Scan interval (defaults to reminders.scan_interval)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9090")
	rootCmd.AddCommand(watchCmd)
}
