package metrics

import (
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// HashMetrics tracks metrics for digest computation.
//
// Metrics:
//   - autoforensic_ledger_hash_duration_seconds: Digest pass duration by algorithm set
//   - autoforensic_ledger_hashed_bytes_total: Total bytes read for digesting
type HashMetrics struct {
	// Duration of a full digest pass over one source
	hashDuration *prometheus.HistogramVec

	// Total bytes fed through the digest engine
	hashedBytesTotal prometheus.Counter
}

// NewHashMetrics creates and registers hash metrics with the provided registry.
func NewHashMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HashMetrics {
	hm := &HashMetrics{
		hashDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "hash_duration_seconds",
				Help:      "Duration of digest passes in seconds",
				// Evidence ranges from kilobyte artifacts to multi-gigabyte
				// disk images, so the buckets stretch past request-latency
				// ranges.
				Buckets: cfg.HashDurationBuckets,
			},
			[]string{"algorithms"},
		),

		hashedBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "hashed_bytes_total",
				Help:      "Total number of bytes read for digest computation",
			},
		),
	}

	registry.MustRegister(
		hm.hashDuration,
		hm.hashedBytesTotal,
	)

	return hm
}

// RecordPass records one digest pass: duration and the bytes read.
func (hm *HashMetrics) RecordPass(algorithms string, duration time.Duration, bytes int64) {
	hm.hashDuration.WithLabelValues(algorithms).Observe(duration.Seconds())
	if bytes > 0 {
		hm.hashedBytesTotal.Add(float64(bytes))
	}
}
