// Package logging constructs the structured loggers used across the
// collector.
//
// # Overview
//
// The logging package configures Go's standard log/slog package:
//   - Text and JSON output formats
//   - Configurable log levels (debug, info, warn, error)
//   - Optional source locations
//   - Output to stderr by default, so command output on stdout stays clean
//
// # Usage
//
//	logger, err := logging.New(logging.Options{
//	    Level:  "info",
//	    Format: "text",
//	})
//	if err != nil {
//	    // invalid level or format
//	}
//
//	// Components tag themselves and log structured data.
//	ledgerLog := logger.With("component", "evidence.custody")
//	ledgerLog.Info("case initialized", "case_id", caseID)
//
// Every component in this repository accepts a *slog.Logger and never
// constructs one itself, so tests can inject slog.New(slog.DiscardHandler)
// or a buffer-backed handler to assert on output.
package logging
