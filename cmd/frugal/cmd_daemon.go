package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/frugalops/frugal/journal"
	"github.com/frugalops/frugal/telemetry"
	"github.com/frugalops/frugal/types"
)

var (
	daemonInterval    time.Duration
	daemonMetricsAddr string
	daemonOnce        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run continuous scanning daemon",
	Long: `Run Frugal as a daemon: scan every configured provider at the
configured interval, evaluate budgets after each scan, and serve
Prometheus metrics and health endpoints.

Endpoints:
- /metrics  Prometheus exposition
- /health   Liveness
- /-/ready  Readiness`,
	Example: `  frugal daemon                      # Use scan_interval from config
  frugal daemon --interval 30m       # Override the interval
  frugal daemon --once               # Single cycle, then exit`,
	RunE: runDaemonCmd,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Scan interval (defaults to scan_interval from config)")
	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics", "", "Metrics listen address (defaults to metrics_addr from config)")
	daemonCmd.Flags().BoolVar(&daemonOnce, "once", false, "Run one cycle and exit")
}

func runDaemonCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	shutdown, err := telemetry.InitOTEL(cmd.Context(), telemetry.Config{
		ServiceName:    "frugal",
		ServiceVersion: version,
		Environment:    a.cfg.Telemetry.Environment,
		OTELEndpoint:   a.cfg.Telemetry.Endpoint,
		Insecure:       a.cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry init failed: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	interval := time.Duration(a.cfg.ScanInterval)
	if daemonInterval > 0 {
		interval = daemonInterval
	}
	addr := a.cfg.MetricsAddr
	if daemonMetricsAddr != "" {
		addr = daemonMetricsAddr
	}

	log := telemetry.NewLogger("daemon")
	log.Info().
		Str("workspace", a.cfg.WorkspaceID).
		Dur("interval", interval).
		Str("metrics_addr", addr).
		Bool("once", daemonOnce).
		Msg("frugal daemon starting")

	cycle := func(ctx context.Context) {
		result, err := a.engine.Scan(ctx, a.cfg.WorkspaceID, types.ProviderAll)
		if err != nil {
			log.Error().Err(err).Msg("scan cycle failed")
		} else {
			log.Info().
				Int("findings", result.TotalFindings()).
				Int("created", result.TotalCreated()).
				Dur("duration", result.Duration).
				Msg("scan cycle complete")
		}

		if _, err := a.engine.EvaluateBudgets(ctx, a.cfg.WorkspaceID); err != nil {
			log.Error().Err(err).Msg("budget evaluation failed")
		}
	}

	if daemonOnce {
		cycle(cmd.Context())
		return nil
	}

	var g run.Group

	// Signal handling.
	g.Add(run.SignalHandler(cmd.Context(), syscall.SIGINT, syscall.SIGTERM))

	// Metrics and health server.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", handleHealth(a.journal))
	mux.HandleFunc("/-/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	g.Add(func() error {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		return srv.ListenAndServe()
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	// Scan loop.
	loopCtx, loopCancel := context.WithCancel(cmd.Context())
	g.Add(func() error {
		cycle(loopCtx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cycle(loopCtx)
			case <-loopCtx.Done():
				return loopCtx.Err()
			}
		}
	}, func(error) {
		loopCancel()
	})

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) || errors.Is(err, context.Canceled) {
		log.Info().Msg("frugal daemon stopped")
		return nil
	}
	return err
}

// handleHealth reports liveness plus journal stats so operators can
// watch audit-trail growth and rotation.
func handleHealth(jrnl *journal.Journal) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		stats := jrnl.GetStats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"journal": map[string]any{
				"last_sequence":     stats.LastSequence,
				"files":             stats.TotalFiles,
				"total_size_bytes":  stats.TotalSizeBytes,
				"current_file_size": stats.CurrentFileSize,
			},
		})
	}
}
