package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"
)

// schemaVersion tags the database via PRAGMA user_version. Opening a
// database written by a newer schema fails rather than guessing.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS evidence_records (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    source      TEXT NOT NULL,
    description TEXT NOT NULL,
    stored_path TEXT,
    digests     TEXT,
    size_bytes  INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    status      TEXT NOT NULL,
    metadata    TEXT,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_records_kind ON evidence_records(kind);
CREATE INDEX IF NOT EXISTS idx_evidence_records_status ON evidence_records(status);
CREATE INDEX IF NOT EXISTS idx_evidence_records_created_at ON evidence_records(created_at);

CREATE TABLE IF NOT EXISTS audit_entries (
    seq       INTEGER PRIMARY KEY AUTOINCREMENT,
    ts        INTEGER NOT NULL,
    action    TEXT NOT NULL,
    verb      TEXT NOT NULL,
    actor     TEXT NOT NULL,
    hostname  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_entries_verb ON audit_entries(verb);
CREATE INDEX IF NOT EXISTS idx_audit_entries_ts ON audit_entries(ts);
`

const saveRecordSQL = `
INSERT INTO evidence_records (
    id, kind, source, description, stored_path, digests, size_bytes,
    created_at, status, metadata, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    stored_path = excluded.stored_path,
    digests     = excluded.digests,
    size_bytes  = excluded.size_bytes,
    status      = excluded.status,
    metadata    = excluded.metadata,
    updated_at  = excluded.updated_at
`

const appendAuditSQL = `
INSERT INTO audit_entries (ts, action, verb, actor, hostname)
VALUES (?, ?, ?, ?, ?)
`

// Options configures the SQLite archive backend.
type Options struct {
	// Path is the database file path. Required.
	Path string

	// MaxOpenConns bounds the connection pool. Writes are serialized
	// internally; extra connections serve concurrent readers under WAL.
	// Default: config.DefaultArchiveMaxOpenConns
	MaxOpenConns int

	// DisableWAL turns off write-ahead logging.
	DisableWAL bool

	// BusyTimeout is how long to wait for a locked database.
	// Default: config.DefaultArchiveBusyTimeout
	BusyTimeout time.Duration

	// Logger receives archive logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics counts failed mirror writes. May be nil.
	Metrics *metrics.Collector
}

// SQLite mirrors evidence records and audit entries into a SQLite database.
type SQLite struct {
	db      *sql.DB
	path    string
	wal     bool
	logger  *slog.Logger
	metrics *metrics.Collector

	mu        sync.Mutex
	closeOnce sync.Once

	saveRecordStmt  *sql.Stmt
	appendAuditStmt *sql.Stmt
}

var _ evidence.Archiver = (*SQLite)(nil)

// NewSQLite opens or creates the archive database, applies pragmas, and
// ensures the schema is current.
func NewSQLite(opts Options) (*SQLite, error) {
	if opts.Path == "" {
		return nil, evidence.NewArchiveError("sqlite", "open", fmt.Errorf("database path is required"))
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = config.DefaultArchiveMaxOpenConns
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = config.DefaultArchiveBusyTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "evidence.archive")

	// The default path lives under reports/ inside the case directory
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, evidence.NewArchiveError("sqlite", "open", err)
	}

	db, err := sql.Open(driverName, opts.Path)
	if err != nil {
		return nil, evidence.NewArchiveError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxOpenConns)

	a := &SQLite{
		db:      db,
		path:    opts.Path,
		wal:     !opts.DisableWAL,
		logger:  logger,
		metrics: opts.Metrics,
	}

	if err := a.initialize(opts.BusyTimeout); err != nil {
		db.Close()
		return nil, err
	}
	if err := a.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("archive opened",
		"path", opts.Path,
		"wal", a.wal,
		"max_open_conns", opts.MaxOpenConns,
	)
	return a, nil
}

func (a *SQLite) initialize(busyTimeout time.Duration) error {
	if a.wal {
		if _, err := a.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewArchiveError("sqlite", "enable_wal", err)
		}
	}
	if _, err := a.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return evidence.NewArchiveError("sqlite", "set_busy_timeout", err)
	}

	var version int
	if err := a.db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return evidence.NewArchiveError("sqlite", "read_schema_version", err)
	}
	switch {
	case version == schemaVersion:
		return nil
	case version == 0:
		if _, err := a.db.Exec(schema); err != nil {
			return evidence.NewArchiveError("sqlite", "create_schema", err)
		}
		if _, err := a.db.Exec(fmt.Sprintf("PRAGMA user_version = %d;", schemaVersion)); err != nil {
			return evidence.NewArchiveError("sqlite", "tag_schema_version", err)
		}
		a.logger.Debug("schema created", "version", schemaVersion)
		return nil
	default:
		return evidence.NewArchiveError("sqlite", "schema_version_mismatch",
			fmt.Errorf("database has schema version %d, this build supports %d", version, schemaVersion))
	}
}

func (a *SQLite) prepareStatements() error {
	var err error
	if a.saveRecordStmt, err = a.db.Prepare(saveRecordSQL); err != nil {
		return evidence.NewArchiveError("sqlite", "prepare_save_record", err)
	}
	if a.appendAuditStmt, err = a.db.Prepare(appendAuditSQL); err != nil {
		return evidence.NewArchiveError("sqlite", "prepare_append_audit", err)
	}
	return nil
}

// SaveRecord upserts one evidence record. Digests and metadata are stored
// as JSON columns.
func (a *SQLite) SaveRecord(ctx context.Context, record *evidence.Record) error {
	if record == nil || record.ID == "" {
		return evidence.NewArchiveError("sqlite", "save_record", errEmptyID)
	}

	digests, err := json.Marshal(record.Digests)
	if err != nil {
		return a.fail("save_record", err)
	}
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return a.fail("save_record", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	_, err = a.saveRecordStmt.ExecContext(ctx,
		record.ID,
		string(record.Kind),
		record.Source,
		record.Description,
		record.StoredPath,
		string(digests),
		record.SizeBytes,
		record.CreatedAt.UnixNano(),
		string(record.Status),
		string(metadata),
		time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return a.fail("save_record", err)
	}
	return nil
}

// AppendAudit appends one audit entry. The verb is split out into its own
// column so QueryAudit can filter without parsing actions.
func (a *SQLite) AppendAudit(ctx context.Context, entry evidence.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.appendAuditStmt.ExecContext(ctx,
		entry.Timestamp.UnixNano(),
		entry.Action,
		evidence.ActionVerb(entry.Action),
		entry.Actor,
		entry.Hostname,
	)
	if err != nil {
		return a.fail("append_audit", err)
	}
	return nil
}

// QueryRecords returns archived records matching the filter in creation
// order.
func (a *SQLite) QueryRecords(ctx context.Context, filter Filter) ([]*evidence.Record, error) {
	query := "SELECT id, kind, source, description, stored_path, digests, size_bytes, created_at, status, metadata FROM evidence_records"
	var conditions []string
	var args []any

	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY created_at ASC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, evidence.NewArchiveError("sqlite", "query_records", err)
	}
	defer rows.Close()

	var records []*evidence.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, evidence.NewArchiveError("sqlite", "scan_record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewArchiveError("sqlite", "query_records", err)
	}
	return records, nil
}

// QueryAudit returns archived audit entries matching the filter in append
// order.
func (a *SQLite) QueryAudit(ctx context.Context, filter AuditFilter) ([]evidence.AuditEntry, error) {
	query := "SELECT ts, action, actor, hostname FROM audit_entries"
	var conditions []string
	var args []any

	if filter.Verb != "" {
		conditions = append(conditions, "verb = ?")
		args = append(args, filter.Verb)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "ts >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY seq ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, evidence.NewArchiveError("sqlite", "query_audit", err)
	}
	defer rows.Close()

	var entries []evidence.AuditEntry
	for rows.Next() {
		var (
			ts    int64
			entry evidence.AuditEntry
		)
		if err := rows.Scan(&ts, &entry.Action, &entry.Actor, &entry.Hostname); err != nil {
			return nil, evidence.NewArchiveError("sqlite", "scan_audit", err)
		}
		entry.Timestamp = time.Unix(0, ts).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewArchiveError("sqlite", "query_audit", err)
	}
	return entries, nil
}

// Rebuild replaces the mirror's contents with canonical state. Called at
// open so a stale or lost archive heals itself from the JSON files.
func (a *SQLite) Rebuild(ctx context.Context, records []*evidence.Record, entries []evidence.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return evidence.NewArchiveError("sqlite", "rebuild", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM evidence_records;"); err != nil {
		return evidence.NewArchiveError("sqlite", "rebuild", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM audit_entries;"); err != nil {
		return evidence.NewArchiveError("sqlite", "rebuild", err)
	}

	now := time.Now().UTC().UnixNano()
	for _, record := range records {
		digests, err := json.Marshal(record.Digests)
		if err != nil {
			return evidence.NewArchiveError("sqlite", "rebuild", err)
		}
		metadata, err := json.Marshal(record.Metadata)
		if err != nil {
			return evidence.NewArchiveError("sqlite", "rebuild", err)
		}
		_, err = tx.ExecContext(ctx, saveRecordSQL,
			record.ID,
			string(record.Kind),
			record.Source,
			record.Description,
			record.StoredPath,
			string(digests),
			record.SizeBytes,
			record.CreatedAt.UnixNano(),
			string(record.Status),
			string(metadata),
			now,
		)
		if err != nil {
			return evidence.NewArchiveError("sqlite", "rebuild", err)
		}
	}
	for _, entry := range entries {
		_, err := tx.ExecContext(ctx, appendAuditSQL,
			entry.Timestamp.UnixNano(),
			entry.Action,
			evidence.ActionVerb(entry.Action),
			entry.Actor,
			entry.Hostname,
		)
		if err != nil {
			return evidence.NewArchiveError("sqlite", "rebuild", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return evidence.NewArchiveError("sqlite", "rebuild", err)
	}

	a.logger.Info("archive rebuilt", "records", len(records), "audit_entries", len(entries))
	return nil
}

// PingContext reports whether the database is reachable. Wired into the
// monitor-mode readiness probe.
func (a *SQLite) PingContext(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close checkpoints the WAL and releases the database. Safe to call more
// than once.
func (a *SQLite) Close() error {
	var closeErr error
	a.closeOnce.Do(func() {
		if a.saveRecordStmt != nil {
			a.saveRecordStmt.Close()
		}
		if a.appendAuditStmt != nil {
			a.appendAuditStmt.Close()
		}
		if a.wal {
			_, _ = a.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
		}
		if err := a.db.Close(); err != nil {
			closeErr = evidence.NewArchiveError("sqlite", "close", err)
			return
		}
		a.logger.Info("archive closed", "path", a.path)
	})
	return closeErr
}

// fail wraps a write error and counts it. Mirror write failures are
// best-effort for callers but must not vanish silently.
func (a *SQLite) fail(op string, err error) error {
	a.metrics.RecordPersistFailure(filepath.Base(a.path))
	return evidence.NewArchiveError("sqlite", op, err)
}

func scanRecord(rows *sql.Rows) (*evidence.Record, error) {
	var (
		record     evidence.Record
		kind       string
		status     string
		digests    string
		metadata   string
		storedPath sql.NullString
		createdAt  int64
	)
	err := rows.Scan(
		&record.ID,
		&kind,
		&record.Source,
		&record.Description,
		&storedPath,
		&digests,
		&record.SizeBytes,
		&createdAt,
		&status,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	record.Kind = evidence.Kind(kind)
	record.Status = evidence.Status(status)
	record.StoredPath = storedPath.String
	record.CreatedAt = time.Unix(0, createdAt).UTC()
	if digests != "" && digests != "null" {
		if err := json.Unmarshal([]byte(digests), &record.Digests); err != nil {
			return nil, err
		}
	}
	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
			return nil, err
		}
	}
	return &record, nil
}
