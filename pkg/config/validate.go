package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
)

// FieldError pins a validation failure to one configuration field.
type FieldError struct {
	// Field is the dotted path of the offending field, e.g. "case.operator".
	Field string

	// Message explains the failure.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError carries every FieldError found in one validation pass, so
// an operator can fix a whole configuration file in one edit instead of
// replaying the load for each mistake.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "configuration validation failed"
	case 1:
		return "configuration validation failed: " + e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// fieldErrs accumulates failures while a section is checked.
type fieldErrs []FieldError

func (fe *fieldErrs) add(field, format string, args ...any) {
	*fe = append(*fe, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks cfg section by section and returns a ValidationError
// listing every rule violation, or nil when the configuration is usable.
func Validate(cfg *Config) error {
	var errs fieldErrs

	errs = append(errs, validateCase(&cfg.Case)...)
	errs = append(errs, validateHashing(&cfg.Hashing)...)
	errs = append(errs, validateVerification(&cfg.Verification, cfg.Hashing.Algorithms)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateArchive(&cfg.Archive)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateCase(cfg *CaseConfig) fieldErrs {
	var errs fieldErrs

	if cfg.Operator == "" {
		errs.add("case.operator", "operator is required")
	}
	if cfg.CollectionSystem == "" {
		errs.add("case.collection_system", "collection system is required")
	}
	if cfg.OutputDir == "" {
		errs.add("case.output_dir", "output directory is required")
	}

	return errs
}

func validateHashing(cfg *HashingConfig) fieldErrs {
	var errs fieldErrs

	if len(cfg.Algorithms) == 0 {
		errs.add("hashing.algorithms", "at least one hash algorithm must be configured")
	}
	for _, name := range cfg.Algorithms {
		if !hashing.Supported(name) {
			errs.add("hashing.algorithms", "unsupported algorithm %q: must be one of %s",
				name, strings.Join(hashing.SupportedAlgorithms(), ", "))
		}
	}

	if cfg.TreeWorkers < 0 {
		errs.add("hashing.tree_workers", "tree workers must be non-negative")
	}
	if cfg.TreeWorkers > 256 {
		errs.add("hashing.tree_workers", "tree workers exceeds reasonable limit (256)")
	}

	return errs
}

// validateVerification also cross-checks against the hashing section: the
// verification algorithm must be one of the configured hashing algorithms,
// otherwise no stored digest would exist to compare against.
func validateVerification(cfg *VerificationConfig, algorithms []string) fieldErrs {
	var errs fieldErrs

	if cfg.Algorithm == "" {
		errs.add("verification.algorithm", "verification algorithm is required")
	} else if !hashing.Supported(cfg.Algorithm) {
		errs.add("verification.algorithm", "unsupported algorithm %q: must be one of %s",
			cfg.Algorithm, strings.Join(hashing.SupportedAlgorithms(), ", "))
	} else {
		configured := false
		for _, name := range algorithms {
			if strings.EqualFold(name, cfg.Algorithm) {
				configured = true
				break
			}
		}
		if !configured {
			errs.add("verification.algorithm",
				"algorithm %q is not in hashing.algorithms; stored evidence would have no digest to verify against",
				cfg.Algorithm)
		}
	}

	if cfg.Parallelism < 0 {
		errs.add("verification.parallelism", "parallelism must be non-negative")
	}
	if cfg.Parallelism > 128 {
		errs.add("verification.parallelism", "parallelism exceeds reasonable limit (128)")
	}

	if cfg.Sweep.Enabled {
		if cfg.Sweep.Schedule == "" {
			errs.add("verification.sweep.schedule", "schedule is required when the sweep is enabled")
		} else if _, err := cron.ParseStandard(cfg.Sweep.Schedule); err != nil {
			errs.add("verification.sweep.schedule", "invalid cron expression %q: %v", cfg.Sweep.Schedule, err)
		}
	}

	return errs
}

func validateWatch(cfg *WatchConfig) fieldErrs {
	var errs fieldErrs

	if cfg.Debounce < 0 {
		errs.add("watch.debounce", "debounce must be non-negative")
	}
	if cfg.Debounce > time.Minute {
		errs.add("watch.debounce", "debounce exceeds reasonable limit (1m)")
	}

	return errs
}

func validateArchive(cfg *ArchiveConfig) fieldErrs {
	var errs fieldErrs

	if cfg.Enabled && cfg.Path == "" {
		errs.add("archive.path", "path is required when the archive is enabled")
	}
	if cfg.MaxOpenConns < 0 {
		errs.add("archive.max_open_conns", "max open connections must be non-negative")
	}
	if cfg.BusyTimeout < 0 {
		errs.add("archive.busy_timeout", "busy timeout must be non-negative")
	}

	return errs
}

func validateExport(cfg *ExportConfig) fieldErrs {
	var errs fieldErrs

	if cfg.MaxRecords < 0 {
		errs.add("export.max_records", "max records must be non-negative")
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) fieldErrs {
	var errs fieldErrs

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs.add("telemetry.logging.level", "logging level is required")
	} else if !validLevels[cfg.Logging.Level] {
		errs.add("telemetry.logging.level",
			"invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if cfg.Logging.Format == "" {
		errs.add("telemetry.logging.format", "logging format is required")
	} else if !validFormats[cfg.Logging.Format] {
		errs.add("telemetry.logging.format",
			"invalid logging format %q: must be 'text' or 'json'", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			errs.add("telemetry.metrics.listen_address", "listen address is required when metrics are enabled")
		}
		if cfg.Metrics.Path == "" {
			errs.add("telemetry.metrics.path", "metrics path is required when metrics are enabled")
		} else if cfg.Metrics.Path[0] != '/' {
			errs.add("telemetry.metrics.path", "metrics path must start with /")
		}
	}

	// Histogram buckets must be strictly increasing.
	for i := 1; i < len(cfg.Metrics.HashDurationBuckets); i++ {
		if cfg.Metrics.HashDurationBuckets[i] <= cfg.Metrics.HashDurationBuckets[i-1] {
			errs.add("telemetry.metrics.hash_duration_buckets", "buckets must be in strictly increasing order")
			break
		}
	}

	return errs
}
