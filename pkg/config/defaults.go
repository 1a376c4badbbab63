package config

import (
	"os"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
)

// Default values for configuration fields.
const (
	// Case defaults
	DefaultCollectionSystem = "autoforensic-collector"
	DefaultOutputDir        = "./evidence"
	DefaultOperatorFallback = "unknown"

	// Verification defaults
	DefaultVerifyAlgorithm   = "sha256"
	DefaultVerifyParallelism = 4
	DefaultSweepSchedule     = "@hourly"

	// Watch defaults
	DefaultWatchDebounce = 500 * time.Millisecond

	// Archive defaults
	DefaultArchivePath         = "reports/archive.db"
	DefaultArchiveMaxOpenConns = 4
	DefaultArchiveBusyTimeout  = 5 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "text"
	DefaultMetricsListenAddress = "127.0.0.1:9464"
	DefaultPrometheusPath       = "/metrics"
	DefaultMetricsNamespace     = "autoforensic"
	DefaultMetricsSubsystem     = "ledger"
)

// DefaultHashDurationBuckets returns the default histogram buckets for
// digest duration in seconds. Large disk images take minutes, so the
// buckets stretch well past typical request-latency ranges.
func DefaultHashDurationBuckets() []float64 {
	return []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0}
}

// DefaultConfig returns a fully defaulted configuration. It is the base
// configuration used when no config file is supplied.
func DefaultConfig() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Case defaults
	if cfg.Case.Operator == "" {
		cfg.Case.Operator = os.Getenv("USER")
	}
	if cfg.Case.Operator == "" {
		cfg.Case.Operator = DefaultOperatorFallback
	}
	if cfg.Case.CollectionSystem == "" {
		cfg.Case.CollectionSystem = DefaultCollectionSystem
	}
	if cfg.Case.OutputDir == "" {
		cfg.Case.OutputDir = DefaultOutputDir
	}

	// Hashing defaults
	if len(cfg.Hashing.Algorithms) == 0 {
		cfg.Hashing.Algorithms = hashing.SupportedAlgorithms()
	}

	// Verification defaults
	if cfg.Verification.Algorithm == "" {
		cfg.Verification.Algorithm = DefaultVerifyAlgorithm
	}
	if cfg.Verification.Parallelism == 0 {
		cfg.Verification.Parallelism = DefaultVerifyParallelism
	}
	if cfg.Verification.Sweep.Schedule == "" {
		cfg.Verification.Sweep.Schedule = DefaultSweepSchedule
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	// Archive defaults
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = DefaultArchivePath
	}
	if cfg.Archive.MaxOpenConns == 0 {
		cfg.Archive.MaxOpenConns = DefaultArchiveMaxOpenConns
	}
	if cfg.Archive.BusyTimeout == 0 {
		cfg.Archive.BusyTimeout = DefaultArchiveBusyTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.HashDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.HashDurationBuckets = DefaultHashDurationBuckets()
	}
}
