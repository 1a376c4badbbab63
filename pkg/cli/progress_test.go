package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSimpleProgress_Lifecycle(t *testing.T) {
	var out bytes.Buffer
	reporter := NewProgressReporter(&out)

	reporter.Start(4)
	reporter.Update(2)
	reporter.Finish()

	got := out.String()
	if !strings.Contains(got, "50.0%") {
		t.Errorf("output missing midpoint percentage:\n%q", got)
	}
	if !strings.Contains(got, "100.0%") {
		t.Errorf("output missing completion percentage:\n%q", got)
	}
	if !strings.Contains(got, "(4/4)") {
		t.Errorf("output missing final count:\n%q", got)
	}
	if !strings.Contains(got, "files/s") {
		t.Errorf("output missing rate unit:\n%q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("Finish() should end the progress line with a newline")
	}
}

func TestSimpleProgress_ZeroTotalRendersNothing(t *testing.T) {
	var out bytes.Buffer
	reporter := NewProgressReporter(&out)

	reporter.Start(0)
	reporter.Update(0)

	if out.Len() != 0 {
		t.Errorf("zero-total progress wrote output: %q", out.String())
	}
}

func TestSimpleProgress_Error(t *testing.T) {
	var out bytes.Buffer
	reporter := NewProgressReporter(&out)

	reporter.Start(10)
	reporter.Error(errors.New("permission denied"))

	if !strings.Contains(out.String(), "permission denied") {
		t.Errorf("error output missing cause:\n%q", out.String())
	}
}

func TestNewProgressReporter_NilWriterDefaults(t *testing.T) {
	reporter := NewProgressReporter(nil)
	if reporter == nil {
		t.Fatal("NewProgressReporter(nil) returned nil")
	}
}

func TestNopProgress(t *testing.T) {
	var reporter ProgressReporter = NopProgress{}

	// All methods are no-ops; this just pins the interface contract.
	reporter.Start(10)
	reporter.Update(5)
	reporter.Error(errors.New("ignored"))
	reporter.Finish()
}
