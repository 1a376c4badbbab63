// Package custody maintains the chain of custody for a collection case.
//
// The Ledger owns the Case aggregate: case identity, the collecting host's
// fingerprint, one summary per evidence item, and the append-only audit
// trail. Every mutation appends at least one audit entry stamped with
// timestamp, operator, and hostname, then atomically rewrites
// chain_of_custody.json before returning.
//
// The audit trail records attempts, not just successes. Verifying an id the
// ledger has never seen still appends an evidence-verified entry; finalizing
// twice appends two terminal entries. History is only ever added to.
//
// Summaries are the custody view of evidence, separate from the store's
// records: they share the evidence id but carry who added the item, when it
// was last updated, and the primary digest. The store keeps them current
// through RecordEvidenceUpdate and RecordVerification.
package custody
