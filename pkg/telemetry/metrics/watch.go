package metrics

import (
	"github.com/servais1983/autoforensic-collector/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// WatchMetrics tracks metrics for the tamper watcher.
//
// Metrics:
//   - autoforensic_ledger_fs_events_total: Filesystem events by operation
//   - autoforensic_ledger_tamper_alerts_total: Debounced tamper alerts raised
type WatchMetrics struct {
	// Filesystem events by operation
	fsEventsTotal *prometheus.CounterVec

	// Tamper alerts raised after debouncing
	tamperAlertsTotal prometheus.Counter
}

// NewWatchMetrics creates and registers watch metrics with the provided registry.
func NewWatchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *WatchMetrics {
	wm := &WatchMetrics{
		fsEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fs_events_total",
				Help:      "Total number of filesystem events observed in the case directory",
			},
			[]string{"op"},
		),

		tamperAlertsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tamper_alerts_total",
				Help:      "Total number of tamper alerts raised",
			},
		),
	}

	registry.MustRegister(
		wm.fsEventsTotal,
		wm.tamperAlertsTotal,
	)

	return wm
}

// RecordEvent records a filesystem event by operation name.
func (wm *WatchMetrics) RecordEvent(op string) {
	wm.fsEventsTotal.WithLabelValues(op).Inc()
}

// RecordAlert records a raised tamper alert.
func (wm *WatchMetrics) RecordAlert() {
	wm.tamperAlertsTotal.Inc()
}
