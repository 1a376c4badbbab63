// Package archive maintains a derived SQLite mirror of the evidence index
// and the custody trail.
//
// # Overview
//
// The JSON files written by the store and the custody ledger are the
// canonical case state. The archive is a secondary, queryable copy kept for
// reporting and for `list --from-archive` on large cases where scanning JSON
// is wasteful. Because it is derived, losing or corrupting the archive loses
// nothing: Rebuild resynchronizes it from canonical state.
//
// Writes go through the evidence.Archiver interface and are best-effort by
// contract. A failed mirror write is logged and counted, never surfaced as a
// ledger failure.
//
// # Backends
//
// SQLite is the production backend. It keeps two tables, evidence_records
// (one row per record, digests and metadata as JSON columns) and
// audit_entries (append-only, monotonic sequence). The schema is tagged via
// PRAGMA user_version. Driver selection follows the build: cgo builds link
// github.com/mattn/go-sqlite3, pure-Go builds fall back to
// modernc.org/sqlite so cross-compiled collector binaries stay self
// contained.
//
// Memory is a map-backed stand-in for tests.
//
// # Usage
//
//	arch, err := archive.NewSQLite(archive.Options{
//		Path:   archive.PathIn(caseDir, &cfg.Archive),
//		Logger: logger,
//	})
//	if err != nil {
//		return err
//	}
//	defer arch.Close()
//
//	records, err := arch.QueryRecords(ctx, archive.Filter{
//		Kind:  evidence.KindMemory,
//		Limit: 50,
//	})
package archive
