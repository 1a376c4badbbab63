// Package export renders a case and its evidence records for handoff.
//
// Two formats are supported. JSON produces a single envelope holding the
// case identity, the full evidence records, the complete audit trail, and
// an export timestamp; it is the format other tools should consume. CSV
// produces one row per record with digest columns for spreadsheet review
// and drops the audit trail.
//
// Exporters implement evidence.Exporter and write to any io.Writer. The
// export command pairs them with an atomic file replace so a crashed
// export never leaves a truncated report in reports/.
package export
