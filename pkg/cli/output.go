package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// Printer writes command output. Results go to Out, diagnostics to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// NewPrinter creates a printer bound to stdout and stderr.
func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

// Printf writes formatted output to Out.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.Out, format, args...)
}

// Errorf writes a formatted diagnostic to Err.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.Err, format, args...)
}

// JSON writes v to Out as indented JSON.
func (p *Printer) JSON(v any) error {
	encoder := json.NewEncoder(p.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// RecordTable writes one line per record in aligned columns.
func (p *Printer) RecordTable(records []*evidence.Record) {
	w := tabwriter.NewWriter(p.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tSIZE\tADDED\tDESCRIPTION")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.Kind,
			rec.Status,
			HumanBytes(rec.SizeBytes),
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.Description,
		)
	}
	w.Flush()
}

// RecordDetail writes the full record, one field per line, digests and
// metadata in stable order.
func (p *Printer) RecordDetail(rec *evidence.Record) {
	w := tabwriter.NewWriter(p.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", rec.ID)
	fmt.Fprintf(w, "Kind:\t%s\n", rec.Kind)
	fmt.Fprintf(w, "Source:\t%s\n", rec.Source)
	fmt.Fprintf(w, "Description:\t%s\n", rec.Description)
	fmt.Fprintf(w, "Status:\t%s\n", rec.Status)
	fmt.Fprintf(w, "Added:\t%s\n", rec.CreatedAt.Format(time.RFC3339))
	if rec.StoredPath != "" {
		fmt.Fprintf(w, "Stored at:\t%s\n", rec.StoredPath)
		fmt.Fprintf(w, "Size:\t%s (%d bytes)\n", HumanBytes(rec.SizeBytes), rec.SizeBytes)
	}
	for _, algorithm := range sortedKeys(rec.Digests) {
		fmt.Fprintf(w, "%s:\t%s\n", algorithm, rec.Digests[algorithm])
	}
	for _, key := range sortedAnyKeys(rec.Metadata) {
		fmt.Fprintf(w, "meta.%s:\t%v\n", key, rec.Metadata[key])
	}
	w.Flush()
}

// CaseSummary writes the case header and audit trail length.
func (p *Printer) CaseSummary(c *evidence.Case) {
	w := tabwriter.NewWriter(p.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Case:\t%s\n", c.CaseID)
	fmt.Fprintf(w, "Operator:\t%s\n", c.Operator)
	fmt.Fprintf(w, "Host:\t%s (%s/%s)\n",
		c.CollectionSystem.Hostname,
		c.CollectionSystem.Platform,
		c.CollectionSystem.Architecture,
	)
	fmt.Fprintf(w, "Started:\t%s\n", c.StartTime.Format(time.RFC3339))
	if c.EndTime != nil {
		fmt.Fprintf(w, "Finalized:\t%s\n", c.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Evidence items:\t%d\n", len(c.EvidenceItems))
	fmt.Fprintf(w, "Audit entries:\t%d\n", len(c.AuditLog))
	w.Flush()
}

// HumanBytes renders a byte count for operators: "4.0 KiB", "2.3 GiB".
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
