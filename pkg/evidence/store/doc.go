// Package store keeps the canonical evidence records and the vault of
// stored copies for one case.
//
// The store's contract is write-once: evidence is registered, optionally
// captured into the vault under <kind>/<id><ext>, digested, and from then on
// only re-verified. Every mutation atomically rewrites evidence_index.json,
// so the on-disk index always describes a consistent set of records, and a
// crash mid-write leaves the previous index intact.
//
// Capture is best-effort by design. Collection runs against live systems
// where sources disappear mid-acquisition; a record whose payload could not
// be captured stays in the registered state rather than aborting the run.
// The custody ledger hears about every registration either way.
//
// Verification goes back to the bytes. Verify and VerifyAll re-read the
// whole stored copy through the hash engine and compare against the digests
// recorded at capture time; size or mtime comparisons are never treated as
// integrity proof.
package store
