package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// Process exit codes. Scripts drive the collector, so failure classes that
// call for different handling get distinct codes.
const (
	// ExitOK means the command succeeded.
	ExitOK = 0

	// ExitError covers ordinary failures.
	ExitError = 1

	// ExitUsage means the operator invoked the command incorrectly.
	ExitUsage = 2

	// ExitCorruptState means a ledger file exists but cannot be trusted.
	// Nothing should touch the case directory until a human looks at it.
	ExitCorruptState = 3

	// ExitVerificationFailed means at least one evidence record failed
	// integrity verification.
	ExitVerificationFailed = 4
)

// UsageError marks an operator mistake, bad flag values or missing
// arguments, as opposed to a runtime failure.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// NewUsageError creates a new UsageError.
func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// VerificationFailedError reports which records failed verification.
type VerificationFailedError struct {
	FailedIDs []string
}

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("verification failed for %d record(s): %s",
		len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
}

// NewVerificationFailedError creates a new VerificationFailedError.
func NewVerificationFailedError(failedIDs []string) *VerificationFailedError {
	return &VerificationFailedError{FailedIDs: failedIDs}
}

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	var corrupt *evidence.CorruptStateError
	if errors.As(err, &corrupt) {
		return ExitCorruptState
	}
	var verification *VerificationFailedError
	if errors.As(err, &verification) {
		return ExitVerificationFailed
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitError
}
