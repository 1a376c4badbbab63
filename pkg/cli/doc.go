// Package cli provides shared helpers for the autoforensic command surface:
// exit-code mapping, signal handling, output formatting, and progress
// reporting.
//
// Commands classify failures through ExitCodeFor so that scripts can react
// to specific conditions. A corrupt ledger maps to ExitCorruptState and a
// failed integrity check to ExitVerificationFailed; everything else is a
// generic ExitError.
package cli
