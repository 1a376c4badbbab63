package custody

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servais1983/autoforensic-collector/internal/atomicfile"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"
)

// FileName is the custody file, persisted inside the case directory.
const FileName = "chain_of_custody.json"

// Options configures a Ledger.
type Options struct {
	// Dir is the case directory holding the custody file.
	Dir string

	// CaseID identifies the investigation. Empty means a fresh UUID.
	CaseID string

	// Operator is the identity stamped on every audit entry.
	Operator string

	// Fingerprint is the collecting host's identity, captured once at
	// initialization. Its hostname is stamped on every audit entry.
	Fingerprint evidence.HostFingerprint

	// Archiver optionally mirrors audit entries into a queryable store.
	// Mirror failures are advisory and never fail a mutation.
	Archiver evidence.Archiver

	// Logger receives structured ledger events. Nil falls back to
	// slog.Default().
	Logger *slog.Logger

	// Metrics optionally counts audit entries and persist failures.
	Metrics *metrics.Collector
}

// Ledger owns one case's chain of custody: the Case aggregate in memory and
// its whole-file persisted form on disk. Every mutation appends at least one
// audit entry and rewrites the custody file atomically before returning, so
// the on-disk trail is never more than one mutation behind and never
// partially written.
//
// Audit entries are append-only. Nothing in this package mutates or removes
// an entry once appended, including repeated finalization.
type Ledger struct {
	mu       sync.Mutex
	path     string
	state    *evidence.Case
	operator string
	hostname string
	archiver evidence.Archiver
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// Init creates a new case and persists its custody file. It refuses to run
// where a custody file already exists: overwriting one would fork the
// recorded history, so reopening goes through Load instead.
func Init(opts Options) (*Ledger, error) {
	l := newLedger(opts)

	if _, err := os.Stat(l.path); err == nil {
		return nil, fmt.Errorf("%s already exists: case is already initialized, reopen it instead", l.path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking custody file: %w", err)
	}

	caseID := opts.CaseID
	if caseID == "" {
		caseID = uuid.NewString()
	}

	l.state = &evidence.Case{
		CaseID:           caseID,
		StartTime:        time.Now().UTC(),
		Operator:         l.operator,
		CollectionSystem: opts.Fingerprint,
		EvidenceItems:    []*evidence.Summary{},
		AuditLog:         []evidence.AuditEntry{},
	}
	l.appendLocked(evidence.ActionCaseInitialized, "")

	if err := l.persistLocked(); err != nil {
		// Nothing durable exists yet, so there is no prior state to
		// stay authoritative for. Initialization fails outright.
		return nil, err
	}

	l.logger.Info("case initialized",
		"case_id", caseID,
		"operator", l.operator,
		"hostname", l.hostname)
	return l, nil
}

// Load reopens an existing custody file. A file that cannot be read or does
// not parse fails with *evidence.CorruptStateError: continuing over an
// unreadable trail would fork the custody history.
func Load(opts Options) (*Ledger, error) {
	l := newLedger(opts)

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no custody file at %s: %w", l.path, err)
		}
		return nil, evidence.NewCorruptStateError(l.path, err)
	}

	var state evidence.Case
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, evidence.NewCorruptStateError(l.path, err)
	}
	if state.CaseID == "" {
		return nil, evidence.NewCorruptStateError(l.path, errors.New("missing case_id"))
	}

	l.state = &state
	if opts.Operator == "" {
		l.operator = state.Operator
	}
	if opts.Fingerprint.Hostname == "" {
		l.hostname = state.CollectionSystem.Hostname
	}

	l.logger.Info("case reopened",
		"case_id", state.CaseID,
		"evidence_items", len(state.EvidenceItems),
		"audit_entries", len(state.AuditLog))
	return l, nil
}

func newLedger(opts Options) *Ledger {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	operator := opts.Operator
	if operator == "" {
		operator = "unknown"
	}
	hostname := opts.Fingerprint.Hostname
	if hostname == "" {
		hostname = "unknown"
	}
	return &Ledger{
		path:     filepath.Join(opts.Dir, FileName),
		operator: operator,
		hostname: hostname,
		archiver: opts.Archiver,
		logger:   logger.With("component", "evidence.custody"),
		metrics:  opts.Metrics,
	}
}

// RecordEvidenceAdded appends a new evidence summary and an evidence-added
// audit entry, then persists. The metadata is deep-copied; later caller
// mutations never leak into the trail.
func (l *Ledger) RecordEvidenceAdded(id string, kind evidence.Kind, source, description string, md evidence.Metadata) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := &evidence.Summary{
		EvidenceID:  id,
		Kind:        kind,
		Source:      source,
		Description: description,
		Metadata:    md.Clone(),
		Timestamp:   time.Now().UTC(),
		AddedBy:     l.operator,
		Status:      evidence.StatusRegistered,
	}
	l.state.EvidenceItems = append(l.state.EvidenceItems, summary)
	l.appendLocked(evidence.ActionEvidenceAdded, fmt.Sprintf("%s (%s)", id, kind))

	return l.persistLocked()
}

// RecordEvidenceUpdate merges new state into an existing summary and appends
// an evidence-updated entry. The merge is additive: empty status, digest, or
// location leave the current value; metadata merges key by key, overwriting
// only the keys present in md. last_updated is restamped.
//
// An unknown id is logged and returned as *evidence.NotFoundError without
// appending anything: there is no summary to update, and fabricating one
// here would bypass RecordEvidenceAdded's provenance fields.
func (l *Ledger) RecordEvidenceUpdate(id string, status evidence.Status, digest, location string, md evidence.Metadata) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := l.findLocked(id)
	if summary == nil {
		l.logger.Warn("update for unknown evidence id", "evidence_id", id)
		return evidence.NewNotFoundError(id)
	}

	now := time.Now().UTC()
	if status != "" {
		summary.Status = status
	}
	if digest != "" {
		summary.Digest = digest
	}
	if location != "" {
		summary.Location = location
	}
	summary.Metadata = summary.Metadata.Merge(md)
	summary.LastUpdated = &now

	detail := id
	if status != "" {
		detail = fmt.Sprintf("%s (%s)", id, status)
	}
	l.appendLocked(evidence.ActionEvidenceUpdated, detail)

	return l.persistLocked()
}

// RecordVerification appends an evidence-verified entry carrying the check's
// outcome and folds the result into the summary: status becomes
// verified_success or verified_failure and verification_time is merged into
// the metadata. Every call appends a fresh entry, so repeated checks build a
// full verification history.
//
// A missing summary is logged and returned as *evidence.NotFoundError, but
// the entry is still appended and persisted. The attempt itself has
// evidentiary value even when the record is unknown.
func (l *Ledger) RecordVerification(id string, passed bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	outcome := "success"
	status := evidence.StatusVerifiedSuccess
	if !passed {
		outcome = "failure"
		status = evidence.StatusVerifiedFailure
	}

	var notFound error
	if summary := l.findLocked(id); summary != nil {
		now := time.Now().UTC()
		summary.Status = status
		summary.Metadata = summary.Metadata.Merge(evidence.Metadata{
			"verification_time": now.Format(time.RFC3339),
		})
		summary.LastUpdated = &now
	} else {
		l.logger.Warn("verification for unknown evidence id", "evidence_id", id, "passed", passed)
		notFound = evidence.NewNotFoundError(id)
	}

	l.appendLocked(evidence.ActionEvidenceVerified, fmt.Sprintf("%s (%s)", id, outcome))

	if err := l.persistLocked(); err != nil {
		return err
	}
	return notFound
}

// Finalize stamps the case end time, appends a case-finalized entry, and
// persists. Finalizing an already finalized case appends another terminal
// entry and restamps end_time; the earlier entries stay untouched.
func (l *Ledger) Finalize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	l.state.EndTime = &now
	l.appendLocked(evidence.ActionCaseFinalized, "")

	if err := l.persistLocked(); err != nil {
		return err
	}

	l.logger.Info("case finalized",
		"case_id", l.state.CaseID,
		"evidence_items", len(l.state.EvidenceItems),
		"audit_entries", len(l.state.AuditLog))
	return nil
}

// Case returns a deep copy of the case aggregate.
func (l *Ledger) Case() *evidence.Case {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// CaseID returns the case identifier.
func (l *Ledger) CaseID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.CaseID
}

// Finalized reports whether the case has been closed at least once.
func (l *Ledger) Finalized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Finalized()
}

// Path returns the custody file location.
func (l *Ledger) Path() string {
	return l.path
}

// findLocked returns the summary for id, or nil. Caller holds l.mu.
func (l *Ledger) findLocked(id string) *evidence.Summary {
	for _, summary := range l.state.EvidenceItems {
		if summary.EvidenceID == id {
			return summary
		}
	}
	return nil
}

// appendLocked appends one audit entry and mirrors it. Caller holds l.mu.
func (l *Ledger) appendLocked(verb, detail string) {
	entry := evidence.AuditEntry{
		Timestamp: time.Now().UTC(),
		Action:    evidence.FormatAction(verb, detail),
		Actor:     l.operator,
		Hostname:  l.hostname,
	}
	l.state.AuditLog = append(l.state.AuditLog, entry)
	l.metrics.RecordAuditEntry(verb)

	if l.archiver != nil {
		if err := l.archiver.AppendAudit(context.Background(), entry); err != nil {
			l.logger.Warn("audit mirror append failed", "action", verb, "error", err)
		}
	}
}

// persistLocked rewrites the custody file atomically. On failure the
// in-memory state stays authoritative; the error is logged, counted, and
// returned so callers can warn the operator. Caller holds l.mu.
func (l *Ledger) persistLocked() error {
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		perr := evidence.NewPersistFailureError(l.path, "encode", err)
		l.logger.Error("custody persist failed", "file", FileName, "error", perr)
		l.metrics.RecordPersistFailure(FileName)
		return perr
	}
	if err := atomicfile.WriteFile(l.path, data, 0o644); err != nil {
		l.logger.Error("custody persist failed", "file", FileName, "error", err)
		l.metrics.RecordPersistFailure(FileName)
		return err
	}
	return nil
}
