// Package evidence defines the core model of the tamper-evident evidence
// ledger: records, custody entries, the case aggregate, and the typed errors
// shared by every ledger component.
//
// # Architecture
//
// The ledger is built from four cooperating components layered over this
// package:
//
//  1. Hash engine (hashing)  - streams evidence payloads through multiple
//     digest algorithms in constant memory
//  2. Evidence store (store) - owns the canonical records, copies payloads
//     into kind-scoped vault directories, persists evidence_index.json
//  3. Custody ledger (custody) - owns the Case aggregate and the append-style
//     audit trail, persists chain_of_custody.json
//  4. Integrity verifier (verify) - recomputes digests and reports pass/fail
//     through the custody ledger
//
// The store and the custody ledger are persisted independently but share
// evidence ids as the join key. Both rewrite their whole file atomically
// (write to a temporary file, rename over the original) on every mutation,
// so a crash mid-write never leaves a truncated or mixed-version file.
//
// # Lifecycle
//
// An evidence record advances forward only:
//
//	registered → stored → verified_success | verified_failure
//
// Re-verification may move between the two verified states; nothing ever
// moves a record backwards. Every lifecycle event appends an AuditEntry to
// the case's custody trail, and entries are never mutated or removed.
//
// # Basic Usage
//
//	eng := hashing.NewEngine(nil, logger)
//
//	ledger, err := custody.Init(custody.Options{
//	    Dir:         caseDir,
//	    Operator:    "jdupont",
//	    Fingerprint: fp,
//	    Logger:      logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	st, err := store.Open(store.Options{
//	    Dir:    caseDir,
//	    Engine: eng,
//	    Ledger: ledger,
//	    Logger: logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	id, err := st.AddMemoryDump(ctx, "workstation-42", "full RAM capture", dumpPath, nil)
//
//	ok, err := st.Verify(ctx, id, "sha256")
//
// # Failure Semantics
//
// Per-record failures (missing source file, unreadable payload) never abort
// the rest of a collection run; they are logged, typed, and the record stays
// registered. Corrupt persisted state at startup is fatal: continuing over
// an unreadable index or custody file would silently fork the evidentiary
// history. Persist failures after startup are logged and counted, and the
// in-memory state remains authoritative for the life of the process.
package evidence
