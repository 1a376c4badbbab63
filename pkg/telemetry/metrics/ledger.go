package metrics

import (
	"github.com/servais1983/autoforensic-collector/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks metrics for the evidence store and chain of custody.
//
// Metrics:
//   - autoforensic_ledger_evidence_added_total: Evidence registrations by kind
//   - autoforensic_ledger_evidence_records: Records currently in the index
//   - autoforensic_ledger_audit_entries_total: Custody entries by action verb
//   - autoforensic_ledger_verifications_total: Integrity checks by result
//   - autoforensic_ledger_persist_failures_total: Failed case file writes by file
type LedgerMetrics struct {
	// Evidence registrations by kind
	evidenceAddedTotal *prometheus.CounterVec

	// Records currently held in the evidence index
	evidenceRecords prometheus.Gauge

	// Chain of custody entries by action verb
	auditEntriesTotal *prometheus.CounterVec

	// Integrity checks by result
	verificationsTotal *prometheus.CounterVec

	// Failed persists of the case files
	persistFailuresTotal *prometheus.CounterVec
}

// NewLedgerMetrics creates and registers ledger metrics with the provided registry.
func NewLedgerMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LedgerMetrics {
	lm := &LedgerMetrics{
		evidenceAddedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_added_total",
				Help:      "Total number of evidence items registered",
			},
			[]string{"kind"},
		),

		evidenceRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_records",
				Help:      "Number of records currently in the evidence index",
			},
		),

		auditEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_entries_total",
				Help:      "Total number of chain of custody entries appended",
			},
			[]string{"action"},
		),

		verificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "verifications_total",
				Help:      "Total number of integrity verifications by result",
			},
			[]string{"result"},
		),

		persistFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "persist_failures_total",
				Help:      "Total number of failed case file writes",
			},
			[]string{"file"},
		),
	}

	registry.MustRegister(
		lm.evidenceAddedTotal,
		lm.evidenceRecords,
		lm.auditEntriesTotal,
		lm.verificationsTotal,
		lm.persistFailuresTotal,
	)

	return lm
}

// RecordEvidenceAdded records an evidence registration for the given kind.
func (lm *LedgerMetrics) RecordEvidenceAdded(kind string) {
	lm.evidenceAddedTotal.WithLabelValues(kind).Inc()
}

// UpdateEvidenceRecords sets the current record count gauge.
func (lm *LedgerMetrics) UpdateEvidenceRecords(n int) {
	lm.evidenceRecords.Set(float64(n))
}

// RecordAuditEntry records an appended custody entry by action verb.
func (lm *LedgerMetrics) RecordAuditEntry(action string) {
	lm.auditEntriesTotal.WithLabelValues(action).Inc()
}

// RecordVerification records an integrity check outcome.
func (lm *LedgerMetrics) RecordVerification(passed bool) {
	result := "success"
	if !passed {
		result = "failure"
	}
	lm.verificationsTotal.WithLabelValues(result).Inc()
}

// RecordPersistFailure records a failed write of a case file.
func (lm *LedgerMetrics) RecordPersistFailure(file string) {
	lm.persistFailuresTotal.WithLabelValues(file).Inc()
}
