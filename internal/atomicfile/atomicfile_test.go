package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

func TestWriteFileCreatesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	if err := WriteFile(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("content = %q, want %q", got, `{"a":1}`)
	}
}

func TestWriteFileReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	if err := WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("first WriteFile() error = %v", err)
	}
	if err := WriteFile(path, []byte("new"), 0o644); err != nil {
		t.Fatalf("second WriteFile() error = %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("content after replace = %q, want %q", got, "new")
	}
}

func TestWriteFileLeavesNoTemporaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custody.json")

	if err := WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Errorf("temporary file left behind: %s", entry.Name())
		}
	}
}

func TestWriteFileMissingDirectoryIsPersistFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "index.json")

	err := WriteFile(path, []byte("x"), 0o644)
	if err == nil {
		t.Fatalf("WriteFile() into missing directory succeeded")
	}

	var pf *evidence.PersistFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("error type = %T, want *evidence.PersistFailureError", err)
	}
	if pf.Op != "create" {
		t.Errorf("PersistFailureError.Op = %q, want %q", pf.Op, "create")
	}
}
