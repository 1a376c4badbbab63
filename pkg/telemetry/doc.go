// Package telemetry provides observability for the evidence collector.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// and health check endpoints for the long-running monitor modes. One-shot
// commands use the logging half only; watch mode and scheduled verification
// sweeps additionally serve /metrics and the health probes.
//
// # Components
//
//   - logging: slog-based structured logging (text or JSON)
//   - metrics: Prometheus metrics collection
//   - health: Liveness and readiness endpoints for the monitor modes
//
// # Usage
//
//	// Build a logger from configuration
//	logger, err := logging.New(logging.Options{
//		Level:  cfg.Telemetry.Logging.Level,
//		Format: cfg.Telemetry.Logging.Format,
//	})
//
//	// Components receive the logger and tag themselves
//	log := logger.With("component", "evidence.store")
//	log.Info("evidence stored", "evidence_id", id)
//
//	// Record metrics
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordEvidenceAdded("memory_dump")
//
// # Performance
//
// Telemetry stays out of the way of acquisitions: recording a metric is a
// counter increment, disabled collectors are single-branch no-ops, and log
// records below the configured level are dropped before formatting.
package telemetry
