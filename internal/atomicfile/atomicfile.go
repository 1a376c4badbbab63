// Package atomicfile implements whole-file atomic replacement, the
// persistence primitive both ledger files rely on: content is written to a
// hidden temporary file in the target directory and renamed over the final
// path, so a reader (or a crash) never observes a partially written file.
package atomicfile

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// WriteFile atomically replaces path with data. Failures are returned as
// *evidence.PersistFailureError carrying the operation that failed; the
// temporary file is removed best-effort on any failure.
func WriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return evidence.NewPersistFailureError(path, "create", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return evidence.NewPersistFailureError(path, "write", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return evidence.NewPersistFailureError(path, "sync", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return evidence.NewPersistFailureError(path, "close", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return evidence.NewPersistFailureError(path, "chmod", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return evidence.NewPersistFailureError(path, "rename", err)
	}
	return nil
}
