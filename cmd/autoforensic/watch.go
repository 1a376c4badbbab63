package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/servais1983/autoforensic-collector/pkg/cli"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/verify"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/watch"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/health"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"
)

var watchFlags struct {
	schedule      string
	metricsListen string
	debounce      time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor the case directory for tampering",
	Long: `Monitor the case directory and alert on any filesystem change that did
not come from this tool. Stored evidence is write-once, so every create,
write, remove or rename under the vault is a tamper signal.

With --schedule (or verification.sweep in the config) the whole case is
additionally re-verified on a cron schedule. --metrics-listen exposes
Prometheus metrics plus /health, /ready and /version on the given address.

Runs until interrupted.

Examples:
  autoforensic watch
  autoforensic watch --schedule '@hourly'
  autoforensic watch --metrics-listen 127.0.0.1:9464`,
	Args: exactArgs(0),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlags.schedule, "schedule", "", "cron schedule for periodic re-verification (overrides config)")
	watchCmd.Flags().StringVar(&watchFlags.metricsListen, "metrics-listen", "", "serve metrics and health endpoints on this address")
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 0, "quiet period before an event is reported (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv()
	if err != nil {
		return err
	}

	// The collector is built from config before flags are seen, so enabling
	// metrics from the command line means rebuilding it before the ledger
	// and store capture a disabled no-op instance.
	if watchFlags.metricsListen != "" {
		env.cfg.Telemetry.Metrics.Enabled = true
		env.cfg.Telemetry.Metrics.ListenAddress = watchFlags.metricsListen
		env.collector = metrics.NewCollector(&env.cfg.Telemetry.Metrics, nil)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	c, err := openCase(ctx, env)
	if err != nil {
		return err
	}
	defer c.Close()

	debounce := watchFlags.debounce
	if debounce <= 0 {
		debounce = env.cfg.Watch.Debounce
	}

	watcher, err := watch.New(watch.Options{
		Dir:      env.caseDir,
		Debounce: debounce,
		Logger:   env.logger,
		Metrics:  env.collector,
	})
	if err != nil {
		return err
	}

	// Sweeps run through the watcher's pause guard: the store rewrites the
	// index after every verification, and those writes must not come back
	// as tamper alerts.
	sweepCfg := env.cfg.Verification
	if watchFlags.schedule != "" {
		sweepCfg.Sweep.Enabled = true
		sweepCfg.Sweep.Schedule = watchFlags.schedule
	} else if !sweepCfg.Sweep.Enabled {
		sweepCfg.Sweep.Schedule = ""
	}

	sweeper, err := verify.NewSweeper(&guardedVerifier{store: c.store, watcher: watcher}, &sweepCfg, env.logger, env.collector)
	if err != nil {
		return err
	}
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	if srv := startMonitor(env, c); srv != nil {
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	env.printer.Printf("Watching %s (case %s)\n", env.caseDir, c.ledger.CaseID())
	if next := sweeper.NextRun(); next != nil {
		env.printer.Printf("Next verification sweep: %s\n", next.Format(time.RFC3339))
	}
	env.printer.Printf("Press Ctrl+C to stop.\n")

	err = watcher.Watch(ctx, func(ev watch.Event) {
		env.printer.Errorf("TAMPER ALERT: %s on %s\n", ev.Op, ev.Path)
	})
	_ = watcher.Stop()
	return err
}

// guardedVerifier pauses the filesystem watcher around a sweep so the
// store's own index rewrite is not reported as tampering.
type guardedVerifier struct {
	store interface {
		VerifyAll(ctx context.Context, algorithm string) map[string]bool
	}
	watcher *watch.Watcher
}

func (g *guardedVerifier) VerifyAll(ctx context.Context, algorithm string) map[string]bool {
	g.watcher.Pause()
	defer g.watcher.Resume()
	return g.store.VerifyAll(ctx, algorithm)
}

// startMonitor serves metrics and health endpoints when metrics are enabled.
// Returns nil otherwise.
func startMonitor(env *commandEnv, c *caseEnv) *http.Server {
	mcfg := &env.cfg.Telemetry.Metrics
	if !mcfg.Enabled {
		return nil
	}

	checker := health.New(5 * time.Second)
	checker.Register("evidence-index", health.JSONFileCheck(c.store.IndexPath()))
	checker.Register("custody-ledger", health.JSONFileCheck(c.ledger.Path()))
	checker.Register("case-dir", health.DirCheck(env.caseDir))
	if c.archive != nil {
		checker.Register("archive", health.DatabaseCheck(c.archive))
	}

	mux := http.NewServeMux()
	mux.Handle(mcfg.Path, env.collector.Handler())
	health.Routes(mux, checker, Version, GitCommit, BuildDate)

	srv := &http.Server{
		Addr:              mcfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		env.logger.Info("monitoring endpoint listening", "address", mcfg.ListenAddress, "path", mcfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.logger.Error("monitoring endpoint failed", "error", err)
		}
	}()
	return srv
}
