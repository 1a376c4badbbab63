package archive

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

var errEmptyID = errors.New("record id is required")

// Filter selects evidence records from the archive. Zero values match
// everything; Limit 0 means no cap.
type Filter struct {
	// Kind restricts results to one evidence kind.
	Kind evidence.Kind

	// Status restricts results to one lifecycle status.
	Status evidence.Status

	// Since drops records created before this time.
	Since time.Time

	// Limit caps the number of returned records.
	Limit int
}

// AuditFilter selects audit entries from the archive.
type AuditFilter struct {
	// Verb restricts results to one action verb ("evidence-added").
	Verb string

	// Since drops entries recorded before this time.
	Since time.Time

	// Limit caps the number of returned entries.
	Limit int
}

// PathIn resolves the configured archive path against the case directory.
// Absolute paths are returned as-is.
func PathIn(caseDir string, cfg *config.ArchiveConfig) string {
	path := cfg.Path
	if path == "" {
		path = config.DefaultArchivePath
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(caseDir, path)
}
