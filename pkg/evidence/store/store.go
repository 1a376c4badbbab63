package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servais1983/autoforensic-collector/internal/atomicfile"
	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/verify"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"
)

// IndexFileName is the evidence index, persisted inside the case directory.
const IndexFileName = "evidence_index.json"

// ReportsDirName holds exports, hash reports, and the archive mirror.
const ReportsDirName = "reports"

// CustodyLedger is the custody trail the store keeps current. Implemented by
// the custody package's Ledger.
type CustodyLedger interface {
	RecordEvidenceAdded(id string, kind evidence.Kind, source, description string, md evidence.Metadata) error
	RecordEvidenceUpdate(id string, status evidence.Status, digest, location string, md evidence.Metadata) error
	RecordVerification(id string, passed bool) error
}

// Options configures a Store.
type Options struct {
	// Dir is the case directory. The store creates the kind subdirectories
	// and reports/ under it.
	Dir string

	// Engine computes digests. Nil builds an engine over every supported
	// algorithm.
	Engine *hashing.Engine

	// Ledger receives the custody trail for every mutation. Required.
	Ledger CustodyLedger

	// Archiver optionally mirrors records into a queryable store. Mirror
	// failures are advisory.
	Archiver evidence.Archiver

	// Parallelism bounds VerifyAll's worker count. Zero means the package
	// default.
	Parallelism int

	// Logger receives structured store events. Nil falls back to
	// slog.Default().
	Logger *slog.Logger

	// Metrics optionally counts intake, records, and hash passes.
	Metrics *metrics.Collector
}

// indexFile is the persisted form of the evidence index.
type indexFile struct {
	EvidenceItems []*evidence.Record `json:"evidence_items"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// Store owns the canonical evidence records, the vault of stored copies, and
// evidence_index.json. Records only accumulate: nothing in this package
// deletes a record or a stored file.
//
// All methods are safe for concurrent use. Reads return deep copies;
// mutations rewrite the index atomically before returning.
type Store struct {
	mu      sync.RWMutex
	dir     string
	path    string
	records []*evidence.Record
	byID    map[string]*evidence.Record

	engine      *hashing.Engine
	verifier    *verify.Verifier
	ledger      CustodyLedger
	archiver    evidence.Archiver
	parallelism int
	logger      *slog.Logger
	metrics     *metrics.Collector
}

// Open creates the case layout under opts.Dir (kind subdirectories plus
// reports/) and loads an existing evidence index if one is present. An index
// that exists but does not parse fails with *evidence.CorruptStateError:
// silently starting empty would orphan the stored copies it described.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("store: case directory is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("store: custody ledger is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "evidence.store")

	engine := opts.Engine
	if engine == nil {
		engine = hashing.NewEngine(nil, logger)
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = config.DefaultVerifyParallelism
	}

	for _, kind := range evidence.Kinds() {
		if err := os.MkdirAll(filepath.Join(opts.Dir, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", kind, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(opts.Dir, ReportsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("creating reports directory: %w", err)
	}

	s := &Store{
		dir:         opts.Dir,
		path:        filepath.Join(opts.Dir, IndexFileName),
		byID:        make(map[string]*evidence.Record),
		engine:      engine,
		ledger:      opts.Ledger,
		archiver:    opts.Archiver,
		parallelism: parallelism,
		logger:      logger,
		metrics:     opts.Metrics,
	}
	s.verifier = verify.NewVerifier(engine, opts.Ledger, opts.Logger, opts.Metrics)

	if err := s.loadIndex(); err != nil {
		return nil, err
	}

	s.metrics.UpdateEvidenceRecords(len(s.records))
	logger.Info("evidence store opened",
		"dir", opts.Dir,
		"records", len(s.records))
	return s, nil
}

// loadIndex reads an existing index file. Missing means a fresh case.
func (s *Store) loadIndex() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return evidence.NewCorruptStateError(s.path, err)
	}

	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return evidence.NewCorruptStateError(s.path, err)
	}

	s.records = idx.EvidenceItems
	for _, rec := range s.records {
		if rec.ID == "" {
			return evidence.NewCorruptStateError(s.path, errors.New("record with empty evidence_id"))
		}
		s.byID[rec.ID] = rec
	}
	return nil
}

// Dir returns the case directory.
func (s *Store) Dir() string { return s.dir }

// IndexPath returns the evidence index location.
func (s *Store) IndexPath() string { return s.path }

// Add registers a new piece of evidence and, when sourceFilePath names a
// readable file, captures it: the payload is copied to
// <dir>/<kind>/<id><ext>, the stored copy is digested with the engine's full
// algorithm set, and the record advances to stored.
//
// Capture failures never abort the registration. A missing source, a failed
// copy (the partial destination is removed best-effort), or a failed digest
// leave the record registered, logged with the reason, and the id is still
// returned. The custody ledger always receives evidence-added; a successful
// capture additionally produces evidence-updated.
//
// A failed index persist is returned alongside the id; the record stays live
// in memory and the store remains usable.
func (s *Store) Add(ctx context.Context, kind evidence.Kind, source, description, sourceFilePath string, md evidence.Metadata) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown evidence kind %q", kind)
	}
	meta, err := evidence.NewMetadata(md)
	if err != nil {
		return "", err
	}

	rec := &evidence.Record{
		ID:          uuid.NewString(),
		Kind:        kind,
		Source:      source,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Status:      evidence.StatusRegistered,
		Metadata:    meta,
	}

	var algorithms []string
	if sourceFilePath != "" {
		algorithms = s.capture(ctx, rec, sourceFilePath)
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.byID[rec.ID] = rec
	persistErr := s.persistLocked()
	s.mu.Unlock()

	s.logger.Info("evidence added",
		"evidence_id", rec.ID,
		"kind", kind,
		"source", source,
		"status", rec.Status)
	s.metrics.RecordEvidenceAdded(string(kind))

	if err := s.ledger.RecordEvidenceAdded(rec.ID, kind, source, description, meta); err != nil {
		s.logger.Warn("custody record failed", "evidence_id", rec.ID, "error", err)
	}
	if rec.Status == evidence.StatusStored {
		update := evidence.Metadata{"hash_algorithms": algorithms}
		if err := s.ledger.RecordEvidenceUpdate(rec.ID, evidence.StatusStored, rec.Digest("sha256"), rec.StoredPath, update); err != nil {
			s.logger.Warn("custody update failed", "evidence_id", rec.ID, "error", err)
		}
	}
	s.mirror(ctx, rec)

	return rec.ID, persistErr
}

// capture copies the source into the vault and digests the stored copy.
// On success the record is mutated to stored and the computed algorithm set
// is returned; on any failure the record stays registered.
func (s *Store) capture(ctx context.Context, rec *evidence.Record, sourceFilePath string) []string {
	dest := filepath.Join(s.dir, string(rec.Kind), rec.ID+filepath.Ext(sourceFilePath))

	if err := copyFile(sourceFilePath, dest); err != nil {
		s.logger.Warn("evidence capture failed, record stays registered",
			"evidence_id", rec.ID,
			"source_path", sourceFilePath,
			"error", err)
		return nil
	}
	rec.StoredPath = dest

	start := time.Now()
	result, err := s.engine.DigestFile(ctx, dest)
	if err != nil {
		s.logger.Warn("evidence digest failed, record stays registered",
			"evidence_id", rec.ID,
			"stored_path", dest,
			"error", err)
		return nil
	}

	algorithms := make([]string, 0, len(result.Digests))
	for algo := range result.Digests {
		algorithms = append(algorithms, algo)
	}
	sort.Strings(algorithms)

	rec.Digests = result.Digests
	rec.SizeBytes = result.BytesRead
	rec.Status = evidence.StatusStored

	s.metrics.RecordHashPass(strings.Join(algorithms, ","), time.Since(start), result.BytesRead)
	return algorithms
}

// copyFile copies src to dst, fsyncing the destination. Failures remove the
// partial destination best-effort: a half-written copy inside the vault
// would be indistinguishable from evidence.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return evidence.NewSourceUnreadableError(src, "open", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return evidence.NewSourceUnreadableError(dst, "create", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return evidence.NewSourceUnreadableError(src, "copy", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return evidence.NewSourceUnreadableError(dst, "sync", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return evidence.NewSourceUnreadableError(dst, "close", err)
	}
	return nil
}

// Get returns a deep copy of the record, or *evidence.NotFoundError.
func (s *Store) Get(id string) (*evidence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, evidence.NewNotFoundError(id)
	}
	return rec.Clone(), nil
}

// List returns deep copies of all records in insertion order.
func (s *Store) List() []*evidence.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*evidence.Record, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out
}

// ListKind returns deep copies of the records of one kind, in insertion
// order.
func (s *Store) ListKind(kind evidence.Kind) []*evidence.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*evidence.Record
	for _, rec := range s.records {
		if rec.Kind == kind {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Verify re-checks one record against its recorded digest (engine re-reads
// the stored copy in full) and folds the outcome into the record: status
// advances to verified_success or verified_failure and verification_time is
// merged into the metadata, then the index is persisted.
//
// An unknown id returns false with *evidence.NotFoundError and no custody
// entry; there is no record whose integrity the entry could attest to.
func (s *Store) Verify(ctx context.Context, id, algorithm string) (bool, error) {
	s.mu.RLock()
	rec, ok := s.byID[id]
	var snapshot *evidence.Record
	if ok {
		snapshot = rec.Clone()
	}
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("verification requested for unknown evidence id", "evidence_id", id)
		return false, evidence.NewNotFoundError(id)
	}

	passed := s.verifier.Verify(ctx, snapshot, algorithm)

	s.mu.Lock()
	s.applyVerificationLocked(id, passed)
	persistErr := s.persistLocked()
	s.mu.Unlock()

	if rec, err := s.Get(id); err == nil {
		s.mirror(ctx, rec)
	}
	return passed, persistErr
}

// VerifyAll verifies every record with up to the configured number of
// workers, one record per worker. Results are merged into the records and
// persisted once after all workers complete. Records that were never stored
// report false: integrity cannot be proven for evidence never captured.
//
// Cancelling ctx stops the sweep between records; outcomes already computed
// are still merged and persisted.
func (s *Store) VerifyAll(ctx context.Context, algorithm string) map[string]bool {
	snapshots := s.List()

	results := make(map[string]bool, len(snapshots))
	var resultMu sync.Mutex

	jobs := make(chan *evidence.Record)
	var wg sync.WaitGroup

	workers := s.parallelism
	if workers > len(snapshots) {
		workers = len(snapshots)
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				passed := s.verifier.Verify(ctx, rec, algorithm)
				resultMu.Lock()
				results[rec.ID] = passed
				resultMu.Unlock()
			}
		}()
	}

feed:
	for _, rec := range snapshots {
		select {
		case jobs <- rec:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	s.mu.Lock()
	for id, passed := range results {
		s.applyVerificationLocked(id, passed)
	}
	if err := s.persistLocked(); err != nil {
		s.logger.Error("index persist after sweep failed", "error", err)
	}
	s.mu.Unlock()

	return results
}

// applyVerificationLocked merges one verification outcome into the live
// record. Transitions are forward-only; re-verification may flip between the
// two verified states. Caller holds s.mu.
func (s *Store) applyVerificationLocked(id string, passed bool) {
	rec, ok := s.byID[id]
	if !ok {
		return
	}

	status := evidence.StatusVerifiedSuccess
	if !passed {
		status = evidence.StatusVerifiedFailure
	}
	if rec.Status.CanAdvance(status) {
		rec.Status = status
	}
	rec.Metadata = rec.Metadata.Merge(evidence.Metadata{
		"verification_time": time.Now().UTC().Format(time.RFC3339),
	})
}

// mirror forwards a record snapshot to the archive, advisory.
func (s *Store) mirror(ctx context.Context, rec *evidence.Record) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.SaveRecord(ctx, rec); err != nil {
		s.logger.Warn("archive mirror failed", "evidence_id", rec.ID, "error", err)
	}
}

// persistLocked rewrites the evidence index atomically. On failure the
// in-memory records stay authoritative; the error is logged, counted, and
// returned. Caller holds s.mu.
func (s *Store) persistLocked() error {
	idx := indexFile{
		EvidenceItems: s.records,
		GeneratedAt:   time.Now().UTC(),
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		perr := evidence.NewPersistFailureError(s.path, "encode", err)
		s.logger.Error("index persist failed", "file", IndexFileName, "error", perr)
		s.metrics.RecordPersistFailure(IndexFileName)
		return perr
	}
	if err := atomicfile.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Error("index persist failed", "file", IndexFileName, "error", err)
		s.metrics.RecordPersistFailure(IndexFileName)
		return err
	}
	s.metrics.UpdateEvidenceRecords(len(s.records))
	return nil
}
