package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/custody"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLedger(t *testing.T, dir string) *custody.Ledger {
	t.Helper()
	ledger, err := custody.Init(custody.Options{
		Dir:      dir,
		CaseID:   "CASE-T",
		Operator: "tester",
		Fingerprint: evidence.HostFingerprint{
			Hostname:     "forensic-ws1",
			Platform:     "linux",
			Architecture: "amd64",
		},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("custody.Init() error = %v", err)
	}
	return ledger
}

func newTestStore(t *testing.T) (*Store, *custody.Ledger, string) {
	t.Helper()
	dir := t.TempDir()
	ledger := newTestLedger(t, dir)
	s, err := Open(Options{
		Dir:    dir,
		Ledger: ledger,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, ledger, dir
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
	return path
}

func TestOpen_CreatesCaseLayout(t *testing.T) {
	_, _, dir := newTestStore(t)

	for _, kind := range evidence.Kinds() {
		info, err := os.Stat(filepath.Join(dir, string(kind)))
		if err != nil || !info.IsDir() {
			t.Errorf("Expected %s directory, err = %v", kind, err)
		}
	}
	info, err := os.Stat(filepath.Join(dir, ReportsDirName))
	if err != nil || !info.IsDir() {
		t.Errorf("Expected reports directory, err = %v", err)
	}
}

func TestOpen_RequiredOptions(t *testing.T) {
	if _, err := Open(Options{Ledger: newTestLedger(t, t.TempDir())}); err == nil {
		t.Error("Expected error for missing case directory")
	}
	if _, err := Open(Options{Dir: t.TempDir()}); err == nil {
		t.Error("Expected error for missing custody ledger")
	}
}

func TestOpen_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	ledger := newTestLedger(t, dir)
	if err := os.WriteFile(filepath.Join(dir, IndexFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}

	_, err := Open(Options{Dir: dir, Ledger: ledger, Logger: testLogger()})
	if err == nil {
		t.Fatal("Expected Open over a corrupt index to fail")
	}
	var corrupt *evidence.CorruptStateError
	if !errors.As(err, &corrupt) {
		t.Errorf("Expected CorruptStateError, got %T: %v", err, err)
	}
}

func TestAdd_WithFile(t *testing.T) {
	s, ledger, dir := newTestStore(t)
	src := writeSource(t, "syslog.log", "Aug 20 10:00:00 host kernel: boot")

	id, err := s.Add(context.Background(), evidence.KindLogs, "/var/log/syslog", "system log", src, nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Expected UUID id, got %q", id)
	}

	rec, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Status != evidence.StatusStored {
		t.Errorf("Status = %q, want %q", rec.Status, evidence.StatusStored)
	}
	wantPath := filepath.Join(dir, "logs", id+".log")
	if rec.StoredPath != wantPath {
		t.Errorf("StoredPath = %q, want %q", rec.StoredPath, wantPath)
	}

	// The stored copy holds the payload
	data, err := os.ReadFile(rec.StoredPath)
	if err != nil {
		t.Fatalf("Failed to read stored copy: %v", err)
	}
	if string(data) != "Aug 20 10:00:00 host kernel: boot" {
		t.Errorf("Stored copy content = %q", data)
	}
	if rec.SizeBytes != int64(len(data)) {
		t.Errorf("SizeBytes = %d, want %d", rec.SizeBytes, len(data))
	}

	// Full algorithm set digested
	for _, algo := range []string{"md5", "sha1", "sha256", "sha512"} {
		if rec.Digest(algo) == "" {
			t.Errorf("Expected %s digest", algo)
		}
	}

	// Custody saw registration and capture
	c := ledger.Case()
	if len(c.EvidenceItems) != 1 {
		t.Fatalf("Expected 1 custody summary, got %d", len(c.EvidenceItems))
	}
	summary := c.EvidenceItems[0]
	if summary.Status != evidence.StatusStored {
		t.Errorf("Summary status = %q, want stored", summary.Status)
	}
	if summary.Digest != rec.Digest("sha256") {
		t.Errorf("Summary digest = %q, want primary sha256", summary.Digest)
	}
	if summary.Location != rec.StoredPath {
		t.Errorf("Summary location = %q, want %q", summary.Location, rec.StoredPath)
	}
	algos, ok := summary.Metadata["hash_algorithms"].([]any)
	if !ok || len(algos) != 4 {
		t.Errorf("Summary hash_algorithms = %v, want 4 algorithms", summary.Metadata["hash_algorithms"])
	}

	verbs := make([]string, 0, len(c.AuditLog))
	for _, entry := range c.AuditLog {
		verbs = append(verbs, evidence.ActionVerb(entry.Action))
	}
	want := []string{evidence.ActionCaseInitialized, evidence.ActionEvidenceAdded, evidence.ActionEvidenceUpdated}
	if len(verbs) != len(want) {
		t.Fatalf("Audit verbs = %v, want %v", verbs, want)
	}
	for i := range want {
		if verbs[i] != want[i] {
			t.Errorf("Audit verb[%d] = %q, want %q", i, verbs[i], want[i])
		}
	}
}

func TestAdd_WithoutFile(t *testing.T) {
	s, ledger, _ := newTestStore(t)

	id, err := s.Add(context.Background(), evidence.KindProcess, "pid 4242", "suspicious process", "", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	rec, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Status != evidence.StatusRegistered {
		t.Errorf("Status = %q, want %q", rec.Status, evidence.StatusRegistered)
	}
	if rec.StoredPath != "" {
		t.Errorf("StoredPath = %q, want empty", rec.StoredPath)
	}
	if len(rec.Digests) != 0 {
		t.Errorf("Digests = %v, want none", rec.Digests)
	}

	// Registration only, no capture update
	c := ledger.Case()
	last := c.AuditLog[len(c.AuditLog)-1]
	if evidence.ActionVerb(last.Action) != evidence.ActionEvidenceAdded {
		t.Errorf("Last audit verb = %q, want evidence-added", last.Action)
	}
}

func TestAdd_MissingSourceStaysRegistered(t *testing.T) {
	s, _, _ := newTestStore(t)

	id, err := s.Add(context.Background(), evidence.KindMemory, "/dev/mem", "dump", "/nonexistent/memory.raw", nil)
	if err != nil {
		t.Fatalf("Add() error = %v, capture failures must not abort registration", err)
	}

	rec, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Status != evidence.StatusRegistered {
		t.Errorf("Status = %q, want registered after failed capture", rec.Status)
	}
}

func TestAdd_PartialCopyRemoved(t *testing.T) {
	s, _, dir := newTestStore(t)

	// A directory opens fine but fails mid-copy
	id, err := s.Add(context.Background(), evidence.KindArtifacts, "bundle", "artifact bundle", t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	rec, _ := s.Get(id)
	if rec.Status != evidence.StatusRegistered {
		t.Errorf("Status = %q, want registered", rec.Status)
	}

	// No partial file may be left in the vault
	entries, err := os.ReadDir(filepath.Join(dir, "artifacts"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty artifacts directory, found %d entries", len(entries))
	}
}

func TestAdd_InvalidKind(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Add(context.Background(), evidence.Kind("floppy"), "a:", "??", "", nil)
	if err == nil {
		t.Fatal("Expected error for unknown kind")
	}
}

func TestAdd_InvalidMetadata(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Add(context.Background(), evidence.KindLogs, "src", "desc", "", evidence.Metadata{"ch": make(chan int)})
	if err == nil {
		t.Fatal("Expected error for unsupported metadata value")
	}
	var mve *evidence.MetadataValueError
	if !errors.As(err, &mve) {
		t.Errorf("Expected MetadataValueError, got %T: %v", err, err)
	}
}

func TestAdd_PreservesExtension(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantExt string
	}{
		{name: "pcap", file: "capture.pcap", wantExt: ".pcap"},
		{name: "raw", file: "memdump.raw", wantExt: ".raw"},
		{name: "no extension", file: "hive", wantExt: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestStore(t)
			src := writeSource(t, tt.file, "payload")

			id, err := s.Add(context.Background(), evidence.KindArtifacts, "src", "desc", src, nil)
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			rec, _ := s.Get(id)
			if got := filepath.Ext(rec.StoredPath); got != tt.wantExt {
				t.Errorf("Stored extension = %q, want %q", got, tt.wantExt)
			}
			if filepath.Base(rec.StoredPath) != id+tt.wantExt {
				t.Errorf("Stored name = %q, want %q", filepath.Base(rec.StoredPath), id+tt.wantExt)
			}
		})
	}
}

func TestGet_UnknownID(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Get("ghost")
	var notFound *evidence.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}
}

func TestGet_ReturnsDeepCopy(t *testing.T) {
	s, _, _ := newTestStore(t)
	src := writeSource(t, "a.log", "payload")
	id, _ := s.Add(context.Background(), evidence.KindLogs, "src", "desc", src, evidence.MustMetadata(map[string]any{"k": "v"}))

	rec, _ := s.Get(id)
	rec.Description = "tampered"
	rec.Digests["sha256"] = "tampered"
	rec.Metadata["k"] = "tampered"

	fresh, _ := s.Get(id)
	if fresh.Description == "tampered" || fresh.Digests["sha256"] == "tampered" || fresh.Metadata["k"] == "tampered" {
		t.Error("Mutation of a returned record leaked into the store")
	}
}

func TestList_InsertionOrderAndUniqueIDs(t *testing.T) {
	s, _, _ := newTestStore(t)

	const n = 10
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.Add(context.Background(), evidence.KindLogs, fmt.Sprintf("src-%d", i), "entry", "", nil)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		ids = append(ids, id)
	}

	seen := make(map[string]bool, n)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("Duplicate id %q", id)
		}
		seen[id] = true
	}

	records := s.List()
	if len(records) != n {
		t.Fatalf("List() returned %d records, want %d", len(records), n)
	}
	for i, rec := range records {
		if rec.ID != ids[i] {
			t.Errorf("List()[%d].ID = %q, want %q (insertion order)", i, rec.ID, ids[i])
		}
	}
}

func TestListKind(t *testing.T) {
	s, _, _ := newTestStore(t)

	memID, _ := s.Add(context.Background(), evidence.KindMemory, "ram", "dump", "", nil)
	s.Add(context.Background(), evidence.KindLogs, "log", "logs", "", nil)
	mem2ID, _ := s.Add(context.Background(), evidence.KindMemory, "ram2", "dump2", "", nil)

	memory := s.ListKind(evidence.KindMemory)
	if len(memory) != 2 {
		t.Fatalf("ListKind(memory) returned %d, want 2", len(memory))
	}
	if memory[0].ID != memID || memory[1].ID != mem2ID {
		t.Error("ListKind() order does not follow insertion order")
	}
	if got := s.ListKind(evidence.KindBrowser); len(got) != 0 {
		t.Errorf("ListKind(browser) returned %d, want 0", len(got))
	}
}

func TestVerify_AfterAdd(t *testing.T) {
	s, ledger, _ := newTestStore(t)
	src := writeSource(t, "syslog.log", "pristine content")
	id, _ := s.Add(context.Background(), evidence.KindLogs, "src", "desc", src, nil)

	passed, err := s.Verify(context.Background(), id, "sha256")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !passed {
		t.Error("Verify() = false immediately after Add, want true")
	}

	rec, _ := s.Get(id)
	if rec.Status != evidence.StatusVerifiedSuccess {
		t.Errorf("Status = %q, want %q", rec.Status, evidence.StatusVerifiedSuccess)
	}
	if _, ok := rec.Metadata["verification_time"]; !ok {
		t.Error("Expected verification_time metadata on the record")
	}

	c := ledger.Case()
	last := c.AuditLog[len(c.AuditLog)-1]
	if last.Action != "evidence-verified: "+id+" (success)" {
		t.Errorf("Last audit action = %q", last.Action)
	}
}

func TestVerify_FlippedByte(t *testing.T) {
	s, ledger, _ := newTestStore(t)
	src := writeSource(t, "image.dd", "disk image payload")
	id, _ := s.Add(context.Background(), evidence.KindDisk, "/dev/sda", "image", src, nil)

	// Flip a single byte in the stored copy
	rec, _ := s.Get(id)
	data, err := os.ReadFile(rec.StoredPath)
	if err != nil {
		t.Fatalf("Failed to read stored copy: %v", err)
	}
	data[0] ^= 0xFF
	if err := os.WriteFile(rec.StoredPath, data, 0o644); err != nil {
		t.Fatalf("Failed to tamper with stored copy: %v", err)
	}

	passed, err := s.Verify(context.Background(), id, "sha256")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if passed {
		t.Error("Verify() = true for tampered copy, want false")
	}

	rec, _ = s.Get(id)
	if rec.Status != evidence.StatusVerifiedFailure {
		t.Errorf("Status = %q, want %q", rec.Status, evidence.StatusVerifiedFailure)
	}

	c := ledger.Case()
	last := c.AuditLog[len(c.AuditLog)-1]
	if last.Action != "evidence-verified: "+id+" (failure)" {
		t.Errorf("Last audit action = %q, want failure entry", last.Action)
	}
}

func TestVerify_UnknownID(t *testing.T) {
	s, ledger, _ := newTestStore(t)
	before := len(ledger.Case().AuditLog)

	passed, err := s.Verify(context.Background(), "ghost", "sha256")
	if passed {
		t.Error("Verify() = true for unknown id")
	}
	var notFound *evidence.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}

	// No custody entry for a record that does not exist
	if after := len(ledger.Case().AuditLog); after != before {
		t.Errorf("Audit log grew from %d to %d", before, after)
	}
}

func TestVerify_ReVerificationFlipsStatus(t *testing.T) {
	s, _, _ := newTestStore(t)
	src := writeSource(t, "a.bin", "payload")
	id, _ := s.Add(context.Background(), evidence.KindArtifacts, "src", "desc", src, nil)

	if passed, _ := s.Verify(context.Background(), id, "sha256"); !passed {
		t.Fatal("First Verify() = false, want true")
	}

	rec, _ := s.Get(id)
	original, _ := os.ReadFile(rec.StoredPath)
	os.WriteFile(rec.StoredPath, []byte("tampered"), 0o644)

	if passed, _ := s.Verify(context.Background(), id, "sha256"); passed {
		t.Fatal("Verify() after tamper = true, want false")
	}
	rec, _ = s.Get(id)
	if rec.Status != evidence.StatusVerifiedFailure {
		t.Errorf("Status = %q, want verified_failure", rec.Status)
	}

	// Restore the payload; verification may flip back to success
	os.WriteFile(rec.StoredPath, original, 0o644)
	if passed, _ := s.Verify(context.Background(), id, "sha256"); !passed {
		t.Fatal("Verify() after restore = false, want true")
	}
	rec, _ = s.Get(id)
	if rec.Status != evidence.StatusVerifiedSuccess {
		t.Errorf("Status = %q, want verified_success", rec.Status)
	}
}

func TestVerifyAll_MixedRecords(t *testing.T) {
	s, _, _ := newTestStore(t)
	src := writeSource(t, "stored.log", "stored payload")
	storedID, _ := s.Add(context.Background(), evidence.KindLogs, "src", "stored", src, nil)
	registeredID, _ := s.Add(context.Background(), evidence.KindProcess, "pid 1", "never captured", "", nil)

	results := s.VerifyAll(context.Background(), "sha256")

	if len(results) != 2 {
		t.Fatalf("VerifyAll() returned %d results, want 2", len(results))
	}
	if !results[storedID] {
		t.Error("Expected stored record to verify true")
	}
	if results[registeredID] {
		t.Error("Expected registered-only record to verify false")
	}

	rec, _ := s.Get(storedID)
	if rec.Status != evidence.StatusVerifiedSuccess {
		t.Errorf("Stored record status = %q, want verified_success", rec.Status)
	}
	rec, _ = s.Get(registeredID)
	if rec.Status != evidence.StatusVerifiedFailure {
		t.Errorf("Registered record status = %q, want verified_failure", rec.Status)
	}
}

func TestVerifyAll_ManyRecordsParallel(t *testing.T) {
	dir := t.TempDir()
	ledger := newTestLedger(t, dir)
	s, err := Open(Options{Dir: dir, Ledger: ledger, Parallelism: 4, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	const n = 20
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		src := writeSource(t, fmt.Sprintf("f%d.bin", i), fmt.Sprintf("payload %d", i))
		id, err := s.Add(context.Background(), evidence.KindArtifacts, "src", "desc", src, nil)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		ids = append(ids, id)
	}

	results := s.VerifyAll(context.Background(), "sha256")
	if len(results) != n {
		t.Fatalf("VerifyAll() returned %d results, want %d", len(results), n)
	}
	for _, id := range ids {
		if !results[id] {
			t.Errorf("Record %s failed verification", id)
		}
	}
}

func TestRestartRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ledger := newTestLedger(t, dir)
	s, err := Open(Options{Dir: dir, Ledger: ledger, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	src := writeSource(t, "a.log", "payload")
	s.Add(context.Background(), evidence.KindLogs, "src", "stored one", src, evidence.MustMetadata(map[string]any{"k": "v"}))
	s.Add(context.Background(), evidence.KindProcess, "pid 7", "registered one", "", nil)
	s.AddNetworkCapture(context.Background(), "eth0", "capture", writeSource(t, "c.pcap", "packets"), nil)

	before, err := json.Marshal(s.List())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// Reopen over the same directory
	reLedger, err := custody.Load(custody.Options{Dir: dir, Logger: testLogger()})
	if err != nil {
		t.Fatalf("custody.Load() error = %v", err)
	}
	reopened, err := Open(Options{Dir: dir, Ledger: reLedger, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Open() after restart error = %v", err)
	}

	after, err := json.Marshal(reopened.List())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("Reloaded records differ from originals\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestConcurrentAdds(t *testing.T) {
	s, _, dir := newTestStore(t)

	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				src := writeSource(t, fmt.Sprintf("w%d-%d.log", w, i), fmt.Sprintf("payload %d %d", w, i))
				if _, err := s.Add(context.Background(), evidence.KindLogs, "src", "entry", src, nil); err != nil {
					t.Errorf("Add() error = %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	records := s.List()
	if len(records) != writers*perWriter {
		t.Errorf("Expected %d records, got %d", writers*perWriter, len(records))
	}
	seen := make(map[string]bool)
	for _, rec := range records {
		if seen[rec.ID] {
			t.Errorf("Duplicate id %q", rec.ID)
		}
		seen[rec.ID] = true
	}

	// Persisted index parses and carries the union
	data, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	if err != nil {
		t.Fatalf("Failed to read index: %v", err)
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		t.Fatalf("Index does not parse after concurrent adds: %v", err)
	}
	if len(idx.EvidenceItems) != writers*perWriter {
		t.Errorf("Persisted index has %d records, want %d", len(idx.EvidenceItems), writers*perWriter)
	}
}

func TestStore_Metrics(t *testing.T) {
	dir := t.TempDir()
	ledger := newTestLedger(t, dir)
	collector := metrics.NewCollector(&config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "metrics",
	}, nil)
	s, err := Open(Options{Dir: dir, Ledger: ledger, Logger: testLogger(), Metrics: collector})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	src := writeSource(t, "a.log", "payload")
	if _, err := s.Add(context.Background(), evidence.KindLogs, "src", "desc", src, nil); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for _, metric := range []string{
		"test_metrics_evidence_added_total",
		"test_metrics_evidence_records",
		"test_metrics_hash_duration_seconds",
		"test_metrics_hashed_bytes_total",
	} {
		n, err := testutil.GatherAndCount(collector.Registry(), metric)
		if err != nil {
			t.Fatalf("GatherAndCount(%s) error = %v", metric, err)
		}
		if n == 0 {
			t.Errorf("Expected %s to be recorded", metric)
		}
	}
}
