package evidence

import (
	"context"
	"io"
	"strings"
	"time"
)

// Kind categorizes a piece of evidence by the collector family that produced it.
type Kind string

const (
	KindMemory    Kind = "memory"    // RAM captures
	KindDisk      Kind = "disk"      // Disk/partition images
	KindProcess   Kind = "process"   // Process listings and dumps
	KindNetwork   Kind = "network"   // Packet captures, connection state
	KindLogs      Kind = "logs"      // System and application logs
	KindArtifacts Kind = "artifacts" // Registry hives, prefetch, misc artifacts
	KindBrowser   Kind = "browser"   // Browser history, cookies, caches
)

// Kinds returns all evidence kinds in their canonical order.
func Kinds() []Kind {
	return []Kind{
		KindMemory,
		KindDisk,
		KindProcess,
		KindNetwork,
		KindLogs,
		KindArtifacts,
		KindBrowser,
	}
}

// Valid reports whether k is one of the known evidence kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMemory, KindDisk, KindProcess, KindNetwork, KindLogs, KindArtifacts, KindBrowser:
		return true
	}
	return false
}

// Status tracks the lifecycle of an evidence record. Transitions only move
// forward: registered → stored → verified_success | verified_failure.
// Re-verification may flip between the two verified states but never
// regresses to stored or registered.
type Status string

const (
	StatusRegistered      Status = "registered"       // Record created, no file captured yet
	StatusStored          Status = "stored"           // File copied into the store and digested
	StatusVerifiedSuccess Status = "verified_success" // Last verification matched
	StatusVerifiedFailure Status = "verified_failure" // Last verification mismatched
)

func (s Status) rank() int {
	switch s {
	case StatusRegistered:
		return 0
	case StatusStored:
		return 1
	case StatusVerifiedSuccess, StatusVerifiedFailure:
		return 2
	}
	return -1
}

// CanAdvance reports whether a transition from s to next preserves the
// forward-only lifecycle.
func (s Status) CanAdvance(next Status) bool {
	if s.rank() < 0 || next.rank() < 0 {
		return false
	}
	return next.rank() >= s.rank()
}

// Record represents a single tracked piece of evidence: one file (or pending
// file) plus its provenance, digests, and lifecycle state.
//
// JSON keys follow the on-disk index format of the original collector
// (evidence_id, type, file_path, hash) so existing case directories stay
// readable. StoredPath is empty until the payload is copied into the store;
// an empty Digests map means no digest has been computed yet.
type Record struct {
	ID          string            `json:"evidence_id"` // UUID v4, immutable
	Kind        Kind              `json:"type"`        // Collector category
	Source      string            `json:"source"`      // Device path, PID, interface name
	Description string            `json:"description"` // Human-readable free text
	StoredPath  string            `json:"file_path"`   // Copy inside the store; empty until copied
	Digests     map[string]string `json:"hash"`        // Algorithm → lowercase hex digest
	SizeBytes   int64             `json:"size_bytes"`  // Stored file length, recorded at digest time
	CreatedAt   time.Time         `json:"timestamp"`   // Record creation time
	Status      Status            `json:"status"`      // Lifecycle state
	Metadata    Metadata          `json:"metadata"`    // Collector-supplied annotations
}

// Clone returns a deep copy. Mutating the clone never affects the original.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Digests != nil {
		out.Digests = make(map[string]string, len(r.Digests))
		for algo, hex := range r.Digests {
			out.Digests[algo] = hex
		}
	}
	out.Metadata = r.Metadata.Clone()
	return &out
}

// Digest returns the stored digest for algorithm, or "" if absent.
func (r *Record) Digest(algorithm string) string {
	return r.Digests[strings.ToLower(algorithm)]
}

// Audit action verbs. An AuditEntry's Action is one of these verbs, followed
// by ": <detail>" when the event concerns a specific record (the detail
// carries the record id plus kind, status, or outcome).
const (
	ActionCaseInitialized  = "case-initialized"
	ActionEvidenceAdded    = "evidence-added"
	ActionEvidenceUpdated  = "evidence-updated"
	ActionEvidenceVerified = "evidence-verified"
	ActionCaseFinalized    = "case-finalized"
)

// FormatAction renders an audit action string from a verb and optional detail.
func FormatAction(verb, detail string) string {
	if detail == "" {
		return verb
	}
	return verb + ": " + detail
}

// ActionVerb extracts the verb prefix from an audit action string.
func ActionVerb(action string) string {
	if i := strings.IndexByte(action, ':'); i >= 0 {
		return action[:i]
	}
	return action
}

// AuditEntry is one event in a case's chain of custody. Entries are ordered
// by insertion and never mutated or removed once written.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"` // When the action happened
	Action    string    `json:"action"`    // Verb plus optional detail, see FormatAction
	Actor     string    `json:"user"`      // Operator identity
	Hostname  string    `json:"hostname"`  // Collection host
}

// Summary is the custody ledger's view of one evidence record. It is created
// by RecordEvidenceAdded and mutated only by additive merges; it shares the
// record id with the evidence index but is persisted independently.
type Summary struct {
	EvidenceID  string     `json:"evidence_id"`
	Kind        Kind       `json:"type"`
	Source      string     `json:"source"`
	Description string     `json:"description"`
	Metadata    Metadata   `json:"metadata"`
	Timestamp   time.Time  `json:"timestamp"` // When the summary was recorded
	AddedBy     string     `json:"added_by"`  // Operator identity
	Status      Status     `json:"status,omitempty"`
	Digest      string     `json:"hash,omitempty"`     // Primary digest (sha256)
	Location    string     `json:"location,omitempty"` // Stored path inside the case
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Clone returns a deep copy of the summary.
func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	out := *s
	out.Metadata = s.Metadata.Clone()
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		out.LastUpdated = &t
	}
	return &out
}

// HostFingerprint is an opaque snapshot of the collecting system's identity,
// captured once at case initialization. Field names mirror the original
// collector's collection_system block.
type HostFingerprint struct {
	Hostname        string `json:"hostname"`
	Platform        string `json:"platform"`                   // OS family (linux, windows, darwin)
	PlatformRelease string `json:"platform_release,omitempty"` // Kernel / OS release when known
	PlatformVersion string `json:"platform_version,omitempty"`
	Architecture    string `json:"architecture"`
	Processor       string `json:"processor,omitempty"`
	RuntimeVersion  string `json:"runtime_version,omitempty"` // Collector runtime (Go version)
}

// Case is the aggregate the custody ledger persists: one investigation run,
// its evidence summaries, and its full audit trail.
type Case struct {
	CaseID           string          `json:"case_id"`
	StartTime        time.Time       `json:"start_time"`
	Operator         string          `json:"operator"`
	CollectionSystem HostFingerprint `json:"collection_system"`
	EvidenceItems    []*Summary      `json:"evidence_items"`
	AuditLog         []AuditEntry    `json:"audit_log"`
	EndTime          *time.Time      `json:"end_time,omitempty"` // Set by finalize; survives restamps
}

// Clone returns a deep copy of the case aggregate.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.EvidenceItems = make([]*Summary, len(c.EvidenceItems))
	for i, item := range c.EvidenceItems {
		out.EvidenceItems[i] = item.Clone()
	}
	out.AuditLog = make([]AuditEntry, len(c.AuditLog))
	copy(out.AuditLog, c.AuditLog)
	if c.EndTime != nil {
		t := *c.EndTime
		out.EndTime = &t
	}
	return &out
}

// Finalized reports whether the case has been closed at least once.
func (c *Case) Finalized() bool {
	return c != nil && c.EndTime != nil
}

// Archiver mirrors ledger state into a secondary queryable store. The JSON
// index and custody file remain the source of truth; archiver failures must
// be treated as advisory by callers.
// Implementations must be safe for concurrent use.
type Archiver interface {
	// SaveRecord inserts or replaces the archived copy of a record.
	SaveRecord(ctx context.Context, record *Record) error

	// AppendAudit appends one custody entry to the archive.
	AppendAudit(ctx context.Context, entry AuditEntry) error

	// Close releases any resources held by the archive.
	Close() error
}

// Exporter writes a case and its evidence records to an output stream in the
// exporter's format.
type Exporter interface {
	Export(ctx context.Context, c *Case, records []*Record, w io.Writer) error
}
