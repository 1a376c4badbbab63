package metrics

import (
	"sync"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in the
// collector. It manages metric registration and provides a unified interface
// for recording metrics across the evidence pipeline.
//
// All recording methods are no-ops when metrics are disabled, so callers
// never need their own enabled checks. A nil *Collector is also safe to call,
// which keeps wiring optional throughout the evidence packages.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Ledger metrics (evidence counts, audit entries, verification results)
	ledgerMetrics *LedgerMetrics

	// Hash metrics (digest durations and throughput)
	hashMetrics *HashMetrics

	// Watch metrics (filesystem events and tamper alerts)
	watchMetrics *WatchMetrics

	// Cardinality tracking for operator-supplied label values
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector builds a collector over cfg, registering every metric family
// up front so that series exist (at zero) from the first scrape. A nil
// registry gets replaced with a fresh private one, which keeps the default
// global registry free of collector state in tests and library use.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Missing namespace, subsystem or buckets fall back to the defaults
	// rather than failing: a collector with Enabled unset is still built,
	// it just never records.
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.HashDurationBuckets) == 0 {
		cfg.HashDurationBuckets = config.DefaultHashDurationBuckets()
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.ledgerMetrics = NewLedgerMetrics(cfg, registry)
	c.hashMetrics = NewHashMetrics(cfg, registry)
	c.watchMetrics = NewWatchMetrics(cfg, registry)

	return c
}

// enabled reports whether metric recording should happen at all.
func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordEvidenceAdded records that a piece of evidence was registered.
//
// Parameters:
//   - kind: evidence kind ("memory_dump", "disk_image", ...)
func (c *Collector) RecordEvidenceAdded(kind string) {
	if !c.enabled() {
		return
	}

	c.ledgerMetrics.RecordEvidenceAdded(kind)
}

// RecordAuditEntry records that an entry was appended to the chain of
// custody.
//
// Parameters:
//   - action: the action verb of the entry ("evidence-added", "case-finalized", ...)
func (c *Collector) RecordAuditEntry(action string) {
	if !c.enabled() {
		return
	}

	c.ledgerMetrics.RecordAuditEntry(action)
}

// RecordVerification records the outcome of an integrity check.
//
// Parameters:
//   - passed: true if the recomputed digest matched the stored digest
func (c *Collector) RecordVerification(passed bool) {
	if !c.enabled() {
		return
	}

	c.ledgerMetrics.RecordVerification(passed)
}

// RecordPersistFailure records a failed write of one of the case files.
//
// Parameters:
//   - file: base name of the file that failed to persist
//     ("evidence_index.json", "chain_of_custody.json")
func (c *Collector) RecordPersistFailure(file string) {
	if !c.enabled() {
		return
	}

	c.ledgerMetrics.RecordPersistFailure(file)
}

// UpdateEvidenceRecords updates the gauge tracking the number of evidence
// records currently in the index.
func (c *Collector) UpdateEvidenceRecords(n int) {
	if !c.enabled() {
		return
	}

	c.ledgerMetrics.UpdateEvidenceRecords(n)
}

// RecordHashPass records one digest pass over a source: its duration and the
// number of bytes read. The algorithms label is the comma-joined algorithm
// set for multi-digest passes or a single algorithm name for verification
// re-reads.
//
// Example:
//
//	collector.RecordHashPass("md5,sha1,sha256,sha512", 1200*time.Millisecond, 1<<30)
//	collector.RecordHashPass("sha256", 800*time.Millisecond, 1<<30)
func (c *Collector) RecordHashPass(algorithms string, duration time.Duration, bytes int64) {
	if !c.enabled() {
		return
	}

	// The algorithm set is operator-supplied; cap distinct label values.
	if !c.cardinalityLimiter.Allow("hash:" + algorithms) {
		algorithms = "other"
	}

	c.hashMetrics.RecordPass(algorithms, duration, bytes)
}

// RecordFsEvent records a filesystem event seen by the tamper watcher.
//
// Parameters:
//   - op: the event operation ("create", "write", "remove", "rename")
func (c *Collector) RecordFsEvent(op string) {
	if !c.enabled() {
		return
	}

	c.watchMetrics.RecordEvent(op)
}

// RecordTamperAlert records that the watcher raised a tamper alert after
// debouncing.
func (c *Collector) RecordTamperAlert() {
	if !c.enabled() {
		return
	}

	c.watchMetrics.RecordAlert()
}

// Registry exposes the underlying Prometheus registry for callers that
// build their own scrape handler instead of using Handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label values admitted for
// operator-supplied labels. Once the cap is hit, new values collapse into a
// catch-all so a scripted caller cannot grow the scrape unbounded.
type CardinalityLimiter struct {
	limit int
	seen  map[string]struct{}
	mu    sync.RWMutex
}

// NewCardinalityLimiter returns a limiter admitting at most limit distinct
// label values.
func NewCardinalityLimiter(limit int) *CardinalityLimiter {
	return &CardinalityLimiter{
		limit: limit,
		seen:  make(map[string]struct{}),
	}
}

// Allow reports whether key may be minted as a label value. Keys admitted
// before always pass; a new key passes only while the cap has room.
func (cl *CardinalityLimiter) Allow(key string) bool {
	cl.mu.RLock()
	_, known := cl.seen[key]
	cl.mu.RUnlock()
	if known {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, known := cl.seen[key]; known {
		return true
	}
	if len(cl.seen) >= cl.limit {
		return false
	}
	cl.seen[key] = struct{}{}
	return true
}

// Count returns the number of distinct admitted keys.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.seen)
}
