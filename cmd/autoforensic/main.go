// AutoForensic Collector is a tamper-evident evidence ledger for forensic
// investigations.
//
// It records every piece of evidence gathered during a case, copies payloads
// into a per-kind vault, computes multi-algorithm digests, and maintains an
// append-style chain of custody. Investigators can later re-verify stored
// evidence and prove, or detect violations of, its integrity.
//
// Usage:
//
//	# Initialize a case
//	autoforensic initcase --operator jdoe --case-dir ./evidence/CASE-2026-001
//
//	# Register and capture evidence
//	autoforensic add memdump.raw --memory-of workstation-7 --description "RAM capture"
//	autoforensic add auth.log --kind logs --source /var/log/auth.log
//
//	# Inspect the ledger
//	autoforensic list
//	autoforensic show <evidence-id>
//
//	# Prove integrity
//	autoforensic verify --all
//
//	# Close the case and export it
//	autoforensic finalize
//	autoforensic export --format json
//
//	# Monitor the vault until interrupted
//	autoforensic watch --schedule @hourly --metrics-listen 127.0.0.1:9464
//
// For complete documentation, see: https://github.com/servais1983/autoforensic-collector
package main

func main() {
	Execute()
}
