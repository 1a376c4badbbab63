package config

import "time"

// Config is the root configuration structure for the AutoForensic collector.
// It contains all configuration sections for case handling, hashing,
// verification, filesystem watching, the archive mirror, exports, and
// telemetry.
type Config struct {
	// Case contains case-level configuration including the operator identity
	// and the evidence output directory.
	Case CaseConfig `yaml:"case"`

	// Hashing contains configuration for digest computation.
	Hashing HashingConfig `yaml:"hashing"`

	// Verification contains configuration for integrity verification,
	// including the periodic verification sweep.
	Verification VerificationConfig `yaml:"verification"`

	// Watch contains configuration for the tamper watcher that monitors
	// the case directory for out-of-band modification.
	Watch WatchConfig `yaml:"watch"`

	// Archive contains configuration for the queryable SQLite mirror of the
	// evidence index and audit log.
	Archive ArchiveConfig `yaml:"archive"`

	// Export contains configuration for case exports.
	Export ExportConfig `yaml:"export"`

	// Telemetry contains configuration for observability including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CaseConfig contains case-level configuration.
type CaseConfig struct {
	// Operator is the name recorded as the acting operator in chain of
	// custody entries.
	// Default: $USER, falling back to "unknown"
	Operator string `yaml:"operator"`

	// CollectionSystem identifies the collecting tool in case records.
	// Default: "autoforensic-collector"
	CollectionSystem string `yaml:"collection_system"`

	// OutputDir is the directory where case directories are created.
	// Default: "./evidence"
	OutputDir string `yaml:"output_dir"`
}

// HashingConfig contains configuration for digest computation.
type HashingConfig struct {
	// Algorithms is the set of digest algorithms computed for every piece
	// of stored evidence. Supported: "md5", "sha1", "sha256", "sha512".
	// Default: all supported algorithms
	Algorithms []string `yaml:"algorithms"`

	// TreeWorkers is the number of concurrent workers used when digesting
	// directory trees. 0 means one worker per CPU.
	// Default: 0
	TreeWorkers int `yaml:"tree_workers"`
}

// VerificationConfig contains configuration for integrity verification.
type VerificationConfig struct {
	// Algorithm is the digest algorithm used for integrity checks.
	// Must be one of the configured hashing algorithms.
	// Default: "sha256"
	Algorithm string `yaml:"algorithm"`

	// Parallelism is the number of records verified concurrently during a
	// full verification pass. 0 means the default.
	// Default: 4
	Parallelism int `yaml:"parallelism"`

	// Sweep contains configuration for the periodic verification sweep.
	Sweep SweepConfig `yaml:"sweep"`
}

// SweepConfig contains configuration for the periodic verification sweep.
type SweepConfig struct {
	// Enabled controls whether the background sweep runs.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression controlling when sweeps run.
	// Standard five-field cron syntax and descriptors such as "@hourly"
	// are accepted.
	// Default: "@hourly"
	Schedule string `yaml:"schedule"`
}

// WatchConfig contains configuration for the tamper watcher.
type WatchConfig struct {
	// Enabled controls whether the case directory is monitored for
	// out-of-band modification.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period applied to filesystem events before an
	// alert is raised. Editors and copy tools emit bursts of events for a
	// single logical change.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`
}

// ArchiveConfig contains configuration for the SQLite archive mirror.
// The JSON index and custody files remain canonical; the archive is a
// derived, queryable copy.
type ArchiveConfig struct {
	// Enabled controls whether the archive mirror is maintained.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the database path relative to the case directory, or an
	// absolute path.
	// Default: "reports/archive.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// DisableWAL turns off write-ahead logging. WAL is enabled by default
	// for better concurrency.
	// Default: false
	DisableWAL bool `yaml:"disable_wal"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ExportConfig contains configuration for case exports.
type ExportConfig struct {
	// Compact emits compact JSON instead of indented JSON.
	// Default: false
	Compact bool `yaml:"compact"`

	// CSVNoHeader omits the header row from CSV exports.
	// Default: false
	CSVNoHeader bool `yaml:"csv_no_header"`

	// MaxRecords caps the number of records in a single export.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int `yaml:"max_records"`
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the slog handler built at startup.
type LoggingConfig struct {
	// Level is the lowest level that gets logged.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the handler type.
	// Options: "text", "json"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource stamps entries with the emitting file and line.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// File is an optional path to append logs to. Empty means stderr.
	// Default: ""
	File string `yaml:"file"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether a Prometheus metrics endpoint is served.
	// Only long-running modes (watch, sweep) serve metrics.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the metrics HTTP listener.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "autoforensic"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "ledger"
	Subsystem string `yaml:"subsystem"`

	// HashDurationBuckets defines histogram buckets for digest duration
	// in seconds. Must be in increasing order.
	// Default: [0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0]
	HashDurationBuckets []float64 `yaml:"hash_duration_buckets"`
}
