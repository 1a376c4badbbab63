package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"
)

// VerifyAller runs a verification pass over every record. Implemented by the
// evidence store.
type VerifyAller interface {
	VerifyAll(ctx context.Context, algorithm string) map[string]bool
}

// Sweeper re-verifies the whole case on a cron schedule. Stored evidence is
// write-once, so a sweep that reports failures means the vault changed
// underneath the ledger; failures are logged loudly and counted as tamper
// alerts.
type Sweeper struct {
	store     VerifyAller
	schedule  string
	algorithm string
	cron      *cron.Cron
	mu        sync.Mutex
	logger    *slog.Logger
	metrics   *metrics.Collector
	running   bool
}

// NewSweeper creates a sweeper from the verification config. The schedule
// accepts standard 5-field cron expressions and descriptors:
//
//   - "0 3 * * *"    - Daily at 3 AM
//   - "@hourly"      - Every hour
//   - "@every 15m"   - Every 15 minutes
//
// An invalid schedule fails construction; an empty one builds a sweeper
// whose Start is a no-op, so callers can wire it unconditionally.
func NewSweeper(store VerifyAller, cfg *config.VerificationConfig, logger *slog.Logger, collector *metrics.Collector) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schedule := cfg.Sweep.Schedule
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
		}
	}
	return &Sweeper{
		store:     store,
		schedule:  schedule,
		algorithm: cfg.Algorithm,
		cron:      cron.New(),
		logger:    logger.With("component", "evidence.sweeper"),
		metrics:   collector,
	}, nil
}

// Start begins scheduled sweeps and returns immediately. The sweeper stops
// itself when ctx is cancelled. With no schedule configured, Start logs and
// does nothing.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule verification sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("verification sweeper started",
		"schedule", s.schedule,
		"algorithm", s.algorithm)

	// Stop with the surrounding run
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// TriggerNow runs one sweep synchronously, outside the schedule.
func (s *Sweeper) TriggerNow(ctx context.Context) map[string]bool {
	return s.runSweep(ctx)
}

// runSweep executes one verification pass over the whole case.
func (s *Sweeper) runSweep(ctx context.Context) map[string]bool {
	s.logger.Info("starting verification sweep")
	start := time.Now()

	results := s.store.VerifyAll(ctx, s.algorithm)

	passed := 0
	var failures []string
	for id, ok := range results {
		if ok {
			passed++
		} else {
			failures = append(failures, id)
		}
	}

	if len(failures) > 0 {
		s.metrics.RecordTamperAlert()
		s.logger.Error("verification sweep found failures",
			"total", len(results),
			"passed", passed,
			"failed", len(failures),
			"failed_ids", failures,
			"duration", time.Since(start))
	} else {
		s.logger.Info("verification sweep completed",
			"total", len(results),
			"passed", passed,
			"duration", time.Since(start))
	}
	return results
}

// Stop stops the scheduler and waits for a running sweep to complete.
// Stopping a sweeper that never started is a no-op.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // Wait for running jobs to finish
		s.running = false
		s.logger.Info("verification sweeper stopped")
	}
}

// IsRunning returns true if the sweeper is running.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
