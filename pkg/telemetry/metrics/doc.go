// Package metrics provides Prometheus metrics collection for the evidence ledger.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring evidence
// intake, custody audit activity, integrity verification outcomes, and hashing
// throughput. Collection is cheap enough to leave enabled during live
// acquisitions.
//
// # Metrics Categories
//
//   - Ledger Metrics: Evidence added, record counts, audit entries, verification
//     outcomes, persistence failures
//   - Hash Metrics: Digest pass duration and bytes hashed
//   - Watch Metrics: Filesystem events and tamper alerts (if watch enabled)
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(config, registry)
//
//	// Record evidence intake
//	collector.RecordEvidenceAdded("memory_dump")
//	collector.UpdateEvidenceRecords(12)
//
//	// Record custody and verification activity
//	collector.RecordAuditEntry("evidence-verified")
//	collector.RecordVerification(true)
//
//	// Record a hashing pass
//	collector.RecordHashPass("md5,sha256", 340*time.Millisecond, 268435456)
//
// A nil *Collector is safe to call. Components take the collector as an
// optional dependency and never need to guard call sites.
//
// # Custom Histogram Buckets
//
// Hash pass durations use buckets sized for forensic payloads, which range
// from kilobyte registry exports to disk images in the tens of gigabytes:
//
//	Hash Duration: 0.01s, 0.05s, 0.1s, 0.5s, 1s, 5s, 15s, 60s
//
// The bucket boundaries are configurable via telemetry.metrics.
//
// # Prometheus Endpoint
//
// All metrics are exposed on the configured endpoint in standard Prometheus
// format:
//
//	# HELP autoforensic_ledger_evidence_added_total Total evidence items added, by kind
//	# TYPE autoforensic_ledger_evidence_added_total counter
//	autoforensic_ledger_evidence_added_total{kind="memory_dump"} 3
//
// Only the long-running modes (watch, scheduled verification sweeps) serve the
// endpoint; one-shot commands record into the registry but exit before a
// scrape would occur.
//
// # Cardinality Management
//
// The algorithms label on hash duration reflects the configured algorithm set
// and stays small in practice. The collector still caps unique label
// combinations and aggregates overflow into "other" so a misbehaving caller
// cannot grow the registry without bound.
package metrics
