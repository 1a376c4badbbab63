package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
)

// CSVExporter writes one row per evidence record. Digests are flattened
// into one column per algorithm; the audit trail does not fit a tabular
// shape and is left to the JSON exporter.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool

	// Algorithms selects the digest columns. Defaults to the full
	// supported set.
	Algorithms []string

	// MaxRecords caps the number of exported records. 0 means unlimited.
	MaxRecords int
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes the records to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, c *evidence.Case, records []*evidence.Record, w io.Writer) error {
	if err := checkLimit("csv", e.MaxRecords, len(records)); err != nil {
		return err
	}

	algorithms := e.Algorithms
	if len(algorithms) == 0 {
		algorithms = hashing.SupportedAlgorithms()
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(e.headerRow(algorithms)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := writer.Write(recordToRow(record, algorithms)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

func (e *CSVExporter) headerRow(algorithms []string) []string {
	header := []string{
		"evidence_id", "type", "source", "description",
		"file_path", "size_bytes", "timestamp", "status",
	}
	header = append(header, algorithms...)
	return append(header, "metadata")
}

func recordToRow(record *evidence.Record, algorithms []string) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	row := []string{
		record.ID,
		string(record.Kind),
		record.Source,
		record.Description,
		record.StoredPath,
		fmt.Sprintf("%d", record.SizeBytes),
		formatTime(record.CreatedAt),
		string(record.Status),
	}
	for _, algorithm := range algorithms {
		row = append(row, record.Digest(algorithm))
	}

	metadata := ""
	if len(record.Metadata) > 0 {
		data, _ := json.Marshal(record.Metadata)
		metadata = string(data)
	}
	return append(row, metadata)
}
