package verify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type verificationCall struct {
	id     string
	passed bool
}

// fakeCustody captures RecordVerification calls.
type fakeCustody struct {
	mu    sync.Mutex
	calls []verificationCall
	err   error
}

func (f *fakeCustody) RecordVerification(id string, passed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, verificationCall{id: id, passed: passed})
	return f.err
}

func (f *fakeCustody) last(t *testing.T) verificationCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("Expected at least one custody call")
	}
	return f.calls[len(f.calls)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storedRecord writes content into dir and returns a stored record with
// freshly computed digests.
func storedRecord(t *testing.T, dir, content string) *evidence.Record {
	t.Helper()
	path := filepath.Join(dir, "ev-1.bin")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write evidence file: %v", err)
	}

	engine := hashing.NewEngine(nil, testLogger())
	result, err := engine.DigestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DigestFile() error = %v", err)
	}

	return &evidence.Record{
		ID:         "ev-1",
		Kind:       evidence.KindArtifacts,
		StoredPath: path,
		Digests:    result.Digests,
		SizeBytes:  result.BytesRead,
		Status:     evidence.StatusStored,
	}
}

func TestVerify_Pass(t *testing.T) {
	rec := storedRecord(t, t.TempDir(), "intact payload")
	custody := &fakeCustody{}
	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), custody, testLogger(), nil)

	if !verifier.Verify(context.Background(), rec, "sha256") {
		t.Error("Verify() = false, want true for intact payload")
	}

	call := custody.last(t)
	if call.id != "ev-1" || !call.passed {
		t.Errorf("Custody call = %+v, want {ev-1 true}", call)
	}
}

func TestVerify_DigestMismatch(t *testing.T) {
	dir := t.TempDir()
	rec := storedRecord(t, dir, "original payload")

	// Tamper with the stored file after capture
	if err := os.WriteFile(rec.StoredPath, []byte("tampered payload"), 0o644); err != nil {
		t.Fatalf("Failed to tamper with file: %v", err)
	}

	custody := &fakeCustody{}
	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), custody, testLogger(), nil)

	if verifier.Verify(context.Background(), rec, "sha256") {
		t.Error("Verify() = true, want false for tampered payload")
	}

	call := custody.last(t)
	if call.passed {
		t.Error("Custody should have recorded a failed verification")
	}
}

func TestVerify_NeverStored(t *testing.T) {
	rec := &evidence.Record{
		ID:     "ev-registered",
		Kind:   evidence.KindMemory,
		Status: evidence.StatusRegistered,
	}
	custody := &fakeCustody{}
	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), custody, testLogger(), nil)

	if verifier.Verify(context.Background(), rec, "sha256") {
		t.Error("Verify() = true, want false for never-stored record")
	}
	if call := custody.last(t); call.passed {
		t.Error("Custody should have recorded a failure")
	}
}

func TestVerify_NoDigestForAlgorithm(t *testing.T) {
	dir := t.TempDir()
	rec := storedRecord(t, dir, "payload")

	// Keep only sha256, then ask for sha512
	rec.Digests = map[string]string{"sha256": rec.Digests["sha256"]}

	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), &fakeCustody{}, testLogger(), nil)
	if verifier.Verify(context.Background(), rec, "sha512") {
		t.Error("Verify() = true, want false when the algorithm has no recorded digest")
	}
}

func TestVerify_StoredFileRemoved(t *testing.T) {
	dir := t.TempDir()
	rec := storedRecord(t, dir, "payload")
	if err := os.Remove(rec.StoredPath); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}

	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), &fakeCustody{}, testLogger(), nil)
	if verifier.Verify(context.Background(), rec, "sha256") {
		t.Error("Verify() = true, want false for a missing stored file")
	}
}

func TestVerify_DefaultAlgorithm(t *testing.T) {
	rec := storedRecord(t, t.TempDir(), "payload")
	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), &fakeCustody{}, testLogger(), nil)

	if !verifier.Verify(context.Background(), rec, "") {
		t.Errorf("Verify() with empty algorithm = false, want true via %s default", config.DefaultVerifyAlgorithm)
	}
}

func TestVerify_AlgorithmCaseInsensitive(t *testing.T) {
	rec := storedRecord(t, t.TempDir(), "payload")
	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), &fakeCustody{}, testLogger(), nil)

	if !verifier.Verify(context.Background(), rec, "SHA256") {
		t.Error("Verify() with uppercase algorithm = false, want true")
	}
}

func TestVerify_CustodyFailureIsAdvisory(t *testing.T) {
	rec := storedRecord(t, t.TempDir(), "payload")
	custody := &fakeCustody{err: errors.New("custody persist failed")}
	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), custody, testLogger(), nil)

	// The verdict stands even when recording it fails
	if !verifier.Verify(context.Background(), rec, "sha256") {
		t.Error("Verify() = false, want true despite custody failure")
	}
}

func TestVerify_NilCustody(t *testing.T) {
	rec := storedRecord(t, t.TempDir(), "payload")
	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), nil, testLogger(), nil)

	if !verifier.Verify(context.Background(), rec, "sha256") {
		t.Error("Verify() = false, want true with nil custody recorder")
	}
}

func TestVerify_CountsOutcomes(t *testing.T) {
	dir := t.TempDir()
	rec := storedRecord(t, dir, "payload")

	collector := metrics.NewCollector(&config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "metrics",
	}, nil)
	verifier := NewVerifier(hashing.NewEngine(nil, testLogger()), &fakeCustody{}, testLogger(), collector)

	verifier.Verify(context.Background(), rec, "sha256")
	if err := os.WriteFile(rec.StoredPath, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("Failed to tamper with file: %v", err)
	}
	verifier.Verify(context.Background(), rec, "sha256")

	// One success series and one failure series
	n, err := testutil.GatherAndCount(collector.Registry(), "test_metrics_verifications_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 verification series, got %d", n)
	}
}
