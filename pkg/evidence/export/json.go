package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// JSONExporter writes a case report as a single JSON document.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool

	// MaxRecords caps the number of exported records. 0 means unlimited.
	MaxRecords int
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// envelope is the export document shape. Records come from the evidence
// store and are richer than the custody summaries, so they replace the
// case's own item list in the output.
type envelope struct {
	Case          caseHeader            `json:"case"`
	EvidenceItems []*evidence.Record    `json:"evidence_items"`
	AuditLog      []evidence.AuditEntry `json:"audit_log"`
	ExportedAt    time.Time             `json:"exported_at"`
}

// Export writes the case and its records to w as one JSON envelope.
func (e *JSONExporter) Export(ctx context.Context, c *evidence.Case, records []*evidence.Record, w io.Writer) error {
	if c == nil {
		return evidence.NewExportError("json", len(records), fmt.Errorf("case is required"))
	}
	if err := checkLimit("json", e.MaxRecords, len(records)); err != nil {
		return err
	}

	if records == nil {
		records = []*evidence.Record{}
	}
	auditLog := c.AuditLog
	if auditLog == nil {
		auditLog = []evidence.AuditEntry{}
	}

	env := envelope{
		Case:          headerFrom(c),
		EvidenceItems: records,
		AuditLog:      auditLog,
		ExportedAt:    time.Now().UTC(),
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(env, "", "  ")
	} else {
		data, err = json.Marshal(env)
	}
	if err != nil {
		return evidence.NewExportError("json", len(records), err)
	}

	if _, err := w.Write(data); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	return nil
}
