package export

import (
	"fmt"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// caseHeader is the case block of an export envelope. The full audit trail
// and the store's records travel beside it, so the header carries identity
// only.
type caseHeader struct {
	CaseID           string                   `json:"case_id"`
	StartTime        time.Time                `json:"start_time"`
	Operator         string                   `json:"operator"`
	CollectionSystem evidence.HostFingerprint `json:"collection_system"`
	EndTime          *time.Time               `json:"end_time,omitempty"`
}

func headerFrom(c *evidence.Case) caseHeader {
	return caseHeader{
		CaseID:           c.CaseID,
		StartTime:        c.StartTime,
		Operator:         c.Operator,
		CollectionSystem: c.CollectionSystem,
		EndTime:          c.EndTime,
	}
}

// ForFormat builds the exporter for a format name using the configured
// export and hashing settings.
func ForFormat(format string, cfg *config.Config) (evidence.Exporter, error) {
	switch format {
	case "json":
		exporter := NewJSONExporter(!cfg.Export.Compact)
		exporter.MaxRecords = cfg.Export.MaxRecords
		return exporter, nil
	case "csv":
		exporter := NewCSVExporter(!cfg.Export.CSVNoHeader)
		exporter.Algorithms = cfg.Hashing.Algorithms
		exporter.MaxRecords = cfg.Export.MaxRecords
		return exporter, nil
	default:
		return nil, evidence.NewExportError(format, 0, fmt.Errorf("unknown export format, expected json or csv"))
	}
}

func checkLimit(format string, max, count int) error {
	if max > 0 && count > max {
		return evidence.NewExportError(format, count,
			fmt.Errorf("record count exceeds configured maximum %d", max))
	}
	return nil
}
