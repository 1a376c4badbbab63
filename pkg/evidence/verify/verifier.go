// Package verify re-checks stored evidence against its recorded digests.
//
// Verification answers one question: does the payload in the store still
// produce the digest recorded when it was captured? The answer is a boolean.
// An unreadable file, a missing digest, or a mismatch all mean "cannot prove
// integrity" and come back false; errors are logged, not returned, so a bad
// item can never abort a sweep over the rest of the case.
package verify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"
)

// CustodyRecorder receives the outcome of every verification. Implemented by
// the custody ledger.
type CustodyRecorder interface {
	RecordVerification(id string, passed bool) error
}

// Verifier recomputes digests for stored evidence. Every check re-reads the
// whole stored file; size or mtime shortcuts are not integrity proof.
type Verifier struct {
	engine  *hashing.Engine
	custody CustodyRecorder
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewVerifier creates a Verifier. custody may be nil for standalone digest
// checks; every non-nil custody receives one RecordVerification call per
// Verify, pass or fail. A nil logger falls back to slog.Default().
func NewVerifier(engine *hashing.Engine, custody CustodyRecorder, logger *slog.Logger, collector *metrics.Collector) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		engine:  engine,
		custody: custody,
		logger:  logger.With("component", "evidence.verify"),
		metrics: collector,
	}
}

// Verify recomputes the record's digest with the given algorithm (default
// sha256) and compares it to the stored value. It returns false, never an
// error, when integrity cannot be proven: no stored payload, no recorded
// digest for the algorithm, an unreadable file, or a mismatch.
//
// The outcome is always recorded: custody gets an evidence-verified entry
// and the verification counters move, whichever way the check went.
func (v *Verifier) Verify(ctx context.Context, rec *evidence.Record, algorithm string) bool {
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	if algorithm == "" {
		algorithm = config.DefaultVerifyAlgorithm
	}

	passed := v.check(ctx, rec, algorithm)

	v.metrics.RecordVerification(passed)
	if v.custody != nil {
		if err := v.custody.RecordVerification(rec.ID, passed); err != nil {
			v.logger.Warn("recording verification outcome failed",
				"evidence_id", rec.ID,
				"passed", passed,
				"error", err)
		}
	}
	return passed
}

func (v *Verifier) check(ctx context.Context, rec *evidence.Record, algorithm string) bool {
	if rec.StoredPath == "" {
		v.logger.Warn("verification failed: evidence was never stored",
			"evidence_id", rec.ID,
			"status", rec.Status)
		return false
	}

	expected := rec.Digest(algorithm)
	if expected == "" {
		v.logger.Warn("verification failed: no recorded digest for algorithm",
			"evidence_id", rec.ID,
			"algorithm", algorithm)
		return false
	}

	start := time.Now()
	result, err := v.engine.DigestFile(ctx, rec.StoredPath, algorithm)
	if err != nil {
		v.logger.Warn("verification failed: stored file unreadable",
			"evidence_id", rec.ID,
			"path", rec.StoredPath,
			"error", err)
		return false
	}
	v.metrics.RecordHashPass(algorithm, time.Since(start), result.BytesRead)

	actual := result.Digests[algorithm]
	if actual != expected {
		v.logger.Error("verification failed: digest mismatch",
			"evidence_id", rec.ID,
			"algorithm", algorithm,
			"expected", expected,
			"actual", actual)
		return false
	}

	v.logger.Info("verification passed",
		"evidence_id", rec.ID,
		"algorithm", algorithm,
		"size_bytes", result.BytesRead)
	return true
}
