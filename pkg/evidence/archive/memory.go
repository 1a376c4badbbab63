package archive

import (
	"context"
	"sync"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// Memory is a map-backed archive for tests. It honors the same query
// semantics as SQLite but keeps everything in process.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*evidence.Record
	order   []string
	entries []evidence.AuditEntry
}

var _ evidence.Archiver = (*Memory)(nil)

// NewMemory creates an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*evidence.Record),
	}
}

// SaveRecord upserts a clone of the record. First-insert order is kept for
// deterministic queries.
func (m *Memory) SaveRecord(ctx context.Context, record *evidence.Record) error {
	if record == nil || record.ID == "" {
		return evidence.NewArchiveError("memory", "save_record", errEmptyID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.ID]; !exists {
		m.order = append(m.order, record.ID)
	}
	m.records[record.ID] = record.Clone()
	return nil
}

// AppendAudit appends the entry.
func (m *Memory) AppendAudit(ctx context.Context, entry evidence.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	return nil
}

// QueryRecords returns cloned records matching the filter in insertion
// order.
func (m *Memory) QueryRecords(ctx context.Context, filter Filter) ([]*evidence.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*evidence.Record
	for _, id := range m.order {
		record := m.records[id]
		if filter.Kind != "" && record.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if !filter.Since.IsZero() && record.CreatedAt.Before(filter.Since) {
			continue
		}
		results = append(results, record.Clone())
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// QueryAudit returns audit entries matching the filter in append order.
func (m *Memory) QueryAudit(ctx context.Context, filter AuditFilter) ([]evidence.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []evidence.AuditEntry
	for _, entry := range m.entries {
		if filter.Verb != "" && evidence.ActionVerb(entry.Action) != filter.Verb {
			continue
		}
		if !filter.Since.IsZero() && entry.Timestamp.Before(filter.Since) {
			continue
		}
		results = append(results, entry)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// Rebuild replaces the archive's contents with the given canonical state.
func (m *Memory) Rebuild(ctx context.Context, records []*evidence.Record, entries []evidence.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]*evidence.Record, len(records))
	m.order = m.order[:0]
	for _, record := range records {
		m.records[record.ID] = record.Clone()
		m.order = append(m.order, record.ID)
	}
	m.entries = append([]evidence.AuditEntry(nil), entries...)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// Size returns the number of archived records (for tests).
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// AuditLen returns the number of archived audit entries (for tests).
func (m *Memory) AuditLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
