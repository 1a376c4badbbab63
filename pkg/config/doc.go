// Package config loads and validates the collector's configuration.
//
// Configuration comes from three layers. Defaults cover every field, a YAML
// file overrides them, and AUTOFORENSIC_* environment variables override the
// file. The merged result is validated before anything else runs, so every
// consumer can assume a well-formed Config.
//
// # Loading
//
// Commands call Initialize once at startup and read the shared instance:
//
//	if err := config.Initialize("autoforensic.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// An empty path skips the file layer, so the collector runs with defaults
// plus environment overrides alone. Library consumers that want their own
// instance call LoadConfig or LoadConfigWithEnvOverrides directly.
//
// # Environment overrides
//
// Variables are named AUTOFORENSIC_SECTION_FIELD and always win over the
// file:
//
//   - AUTOFORENSIC_CASE_OPERATOR overrides case.operator
//   - AUTOFORENSIC_HASHING_ALGORITHMS overrides hashing.algorithms (comma-separated)
//   - AUTOFORENSIC_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Validation
//
// Validation runs on every load and reload. It collects every problem before
// reporting, one line per field path:
//
//	configuration validation failed with 2 errors:
//	  - hashing.algorithms: unsupported algorithm "crc32": must be one of md5, sha1, sha256, sha512
//	  - verification.sweep.schedule: invalid cron expression "every hour"
//
// The checks go beyond shape: the verification algorithm must be one of the
// configured hashing algorithms, and a sweep schedule must parse as a cron
// expression before the sweeper accepts it.
//
// # Example
//
//	case:
//	  operator: "jdoe"
//	  output_dir: "./evidence"
//
//	hashing:
//	  algorithms: ["sha256", "sha512"]
//
//	verification:
//	  algorithm: "sha256"
//	  sweep:
//	    enabled: true
//	    schedule: "@hourly"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "text"
//
// A fully commented example lives in examples/autoforensic.yaml.
package config
