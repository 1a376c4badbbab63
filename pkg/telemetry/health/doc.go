// Package health provides health check endpoints for the long-running
// monitor modes (watch and scheduled verification sweeps).
//
// # Overview
//
// One-shot commands report failures on stderr and exit. The monitor modes
// stay up for days, so they expose the usual probe endpoints next to
// /metrics: a liveness probe that answers as long as the process runs, and a
// readiness probe that re-checks the case components on every request.
//
// # Checks
//
// Checks are plain functions registered per component. The package ships the
// ones the monitor needs:
//
//   - JSONFileCheck: the evidence index and chain of custody still parse
//   - DirCheck: the case directory is present
//   - DatabaseCheck: the archive database answers a ping
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.Register("evidence-index", health.JSONFileCheck(filepath.Join(caseDir, "evidence_index.json")))
//	checker.Register("custody-ledger", health.JSONFileCheck(filepath.Join(caseDir, "chain_of_custody.json")))
//
//	mux := http.NewServeMux()
//	health.Routes(mux, checker, version, commit, buildTime)
//
// A degraded readiness response means a case file stopped parsing underneath
// the monitor. That is the same condition the watcher raises tamper alerts
// for, surfaced in a form probes understand.
package health
