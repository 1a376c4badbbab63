package config

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Case.Operator == "" {
		t.Error("expected non-empty operator after defaults")
	}
	if cfg.Case.CollectionSystem != DefaultCollectionSystem {
		t.Errorf("expected collection system %q, got %q", DefaultCollectionSystem, cfg.Case.CollectionSystem)
	}
	if cfg.Case.OutputDir != DefaultOutputDir {
		t.Errorf("expected output dir %q, got %q", DefaultOutputDir, cfg.Case.OutputDir)
	}

	want := []string{"md5", "sha1", "sha256", "sha512"}
	if !reflect.DeepEqual(cfg.Hashing.Algorithms, want) {
		t.Errorf("expected default algorithms %v, got %v", want, cfg.Hashing.Algorithms)
	}

	if cfg.Verification.Algorithm != DefaultVerifyAlgorithm {
		t.Errorf("expected verification algorithm %q, got %q", DefaultVerifyAlgorithm, cfg.Verification.Algorithm)
	}
	if cfg.Verification.Parallelism != DefaultVerifyParallelism {
		t.Errorf("expected parallelism %d, got %d", DefaultVerifyParallelism, cfg.Verification.Parallelism)
	}
	if cfg.Verification.Sweep.Schedule != DefaultSweepSchedule {
		t.Errorf("expected sweep schedule %q, got %q", DefaultSweepSchedule, cfg.Verification.Sweep.Schedule)
	}
	if cfg.Verification.Sweep.Enabled {
		t.Error("sweep should be disabled by default")
	}

	if cfg.Watch.Debounce != DefaultWatchDebounce {
		t.Errorf("expected debounce %v, got %v", DefaultWatchDebounce, cfg.Watch.Debounce)
	}
	if cfg.Watch.Enabled {
		t.Error("watch should be disabled by default")
	}

	if cfg.Archive.Path != DefaultArchivePath {
		t.Errorf("expected archive path %q, got %q", DefaultArchivePath, cfg.Archive.Path)
	}
	if cfg.Archive.BusyTimeout != DefaultArchiveBusyTimeout {
		t.Errorf("expected busy timeout %v, got %v", DefaultArchiveBusyTimeout, cfg.Archive.BusyTimeout)
	}
	if cfg.Archive.Enabled {
		t.Error("archive should be disabled by default")
	}

	if cfg.Export.Compact {
		t.Error("exports should be pretty-printed by default")
	}
	if cfg.Export.CSVNoHeader {
		t.Error("CSV exports should include a header by default")
	}

	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
		t.Errorf("expected logging format %q, got %q", DefaultLoggingFormat, cfg.Telemetry.Logging.Format)
	}
	if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("expected namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
	}
	if len(cfg.Telemetry.Metrics.HashDurationBuckets) == 0 {
		t.Error("expected default histogram buckets")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Case: CaseConfig{
			Operator:  "alice",
			OutputDir: "/srv/cases",
		},
		Hashing: HashingConfig{
			Algorithms: []string{"sha256"},
		},
		Verification: VerificationConfig{
			Parallelism: 16,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}

	ApplyDefaults(&cfg)

	if cfg.Case.Operator != "alice" {
		t.Errorf("operator overwritten: got %q", cfg.Case.Operator)
	}
	if cfg.Case.OutputDir != "/srv/cases" {
		t.Errorf("output dir overwritten: got %q", cfg.Case.OutputDir)
	}
	if !reflect.DeepEqual(cfg.Hashing.Algorithms, []string{"sha256"}) {
		t.Errorf("algorithms overwritten: got %v", cfg.Hashing.Algorithms)
	}
	if cfg.Verification.Parallelism != 16 {
		t.Errorf("parallelism overwritten: got %d", cfg.Verification.Parallelism)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("debounce overwritten: got %v", cfg.Watch.Debounce)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	first := cfg

	ApplyDefaults(&cfg)

	if !reflect.DeepEqual(first, cfg) {
		t.Error("second ApplyDefaults call changed the configuration")
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default configuration should validate: %v", err)
	}
}
