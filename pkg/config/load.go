package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML file at path, fills in defaults, and validates
// the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention AUTOFORENSIC_SECTION_FIELD (e.g., AUTOFORENSIC_CASE_OPERATOR).
// Environment variables always take precedence over file-based configuration.
//
// If path is empty, the defaults are used as the base instead of a file, so
// the tool runs without any configuration file at all.
//
// The loading sequence is:
//  1. Load YAML from file (or start from defaults)
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format AUTOFORENSIC_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Case overrides
	if val := os.Getenv("AUTOFORENSIC_CASE_OPERATOR"); val != "" {
		cfg.Case.Operator = val
	}
	if val := os.Getenv("AUTOFORENSIC_CASE_COLLECTION_SYSTEM"); val != "" {
		cfg.Case.CollectionSystem = val
	}
	if val := os.Getenv("AUTOFORENSIC_CASE_OUTPUT_DIR"); val != "" {
		cfg.Case.OutputDir = val
	}

	// Hashing overrides
	if val := os.Getenv("AUTOFORENSIC_HASHING_ALGORITHMS"); val != "" {
		cfg.Hashing.Algorithms = splitList(val)
	}
	if val := os.Getenv("AUTOFORENSIC_HASHING_TREE_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Hashing.TreeWorkers = i
		}
	}

	// Verification overrides
	if val := os.Getenv("AUTOFORENSIC_VERIFICATION_ALGORITHM"); val != "" {
		cfg.Verification.Algorithm = val
	}
	if val := os.Getenv("AUTOFORENSIC_VERIFICATION_PARALLELISM"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Verification.Parallelism = i
		}
	}
	if val := os.Getenv("AUTOFORENSIC_VERIFICATION_SWEEP_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Verification.Sweep.Enabled = b
		}
	}
	if val := os.Getenv("AUTOFORENSIC_VERIFICATION_SWEEP_SCHEDULE"); val != "" {
		cfg.Verification.Sweep.Schedule = val
	}

	// Watch overrides
	if val := os.Getenv("AUTOFORENSIC_WATCH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Watch.Enabled = b
		}
	}
	if val := os.Getenv("AUTOFORENSIC_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watch.Debounce = d
		}
	}

	// Archive overrides
	if val := os.Getenv("AUTOFORENSIC_ARCHIVE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if val := os.Getenv("AUTOFORENSIC_ARCHIVE_PATH"); val != "" {
		cfg.Archive.Path = val
	}
	if val := os.Getenv("AUTOFORENSIC_ARCHIVE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Archive.BusyTimeout = d
		}
	}

	// Export overrides
	if val := os.Getenv("AUTOFORENSIC_EXPORT_COMPACT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Export.Compact = b
		}
	}
	if val := os.Getenv("AUTOFORENSIC_EXPORT_MAX_RECORDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Export.MaxRecords = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("AUTOFORENSIC_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("AUTOFORENSIC_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("AUTOFORENSIC_TELEMETRY_LOGGING_FILE"); val != "" {
		cfg.Telemetry.Logging.File = val
	}
	if val := os.Getenv("AUTOFORENSIC_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("AUTOFORENSIC_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}

// splitList splits a comma-separated environment value into trimmed,
// non-empty elements.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
