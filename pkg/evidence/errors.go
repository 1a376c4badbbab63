package evidence

import (
	"fmt"
	"strings"
)

// SourceUnreadableError reports that an evidence payload could not be opened
// or read at digest time. It is non-fatal to a collection run: the record
// stays in the registered state and other evidence is unaffected.
type SourceUnreadableError struct {
	Path  string // File that could not be read
	Op    string // Operation that failed ("stat", "open", "read", "copy")
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *SourceUnreadableError) Error() string {
	return fmt.Sprintf("source unreadable [path=%s, op=%s]: %v", e.Path, e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *SourceUnreadableError) Unwrap() error {
	return e.Cause
}

// NewSourceUnreadableError creates a new SourceUnreadableError.
func NewSourceUnreadableError(path, op string, cause error) *SourceUnreadableError {
	return &SourceUnreadableError{
		Path:  path,
		Op:    op,
		Cause: cause,
	}
}

// UnsupportedAlgorithmError reports that a digest request contained no usable
// algorithm after filtering out unknown names. It fails only the hash call
// that raised it.
type UnsupportedAlgorithmError struct {
	Requested []string // Algorithm names as requested by the caller
}

// Error implements the error interface.
func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("no supported hash algorithm in [%s]", strings.Join(e.Requested, ", "))
}

// NewUnsupportedAlgorithmError creates a new UnsupportedAlgorithmError.
func NewUnsupportedAlgorithmError(requested []string) *UnsupportedAlgorithmError {
	return &UnsupportedAlgorithmError{Requested: requested}
}

// NotFoundError reports an operation referencing an evidence id the ledger
// does not know. Callers log it and report the operation as failed; it never
// crashes the ledger.
type NotFoundError struct {
	ID string // Evidence record id
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("evidence not found [id=%s]", e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// CorruptStateError reports that a persisted ledger file (evidence index or
// custody file) exists but cannot be parsed. It is fatal to initialization:
// silently starting over an unreadable ledger would fork the custody history.
type CorruptStateError struct {
	File  string // Path of the unparsable file
	Cause error  // Underlying parse/read error
}

// Error implements the error interface.
func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt ledger state [file=%s]: %v", e.File, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CorruptStateError) Unwrap() error {
	return e.Cause
}

// NewCorruptStateError creates a new CorruptStateError.
func NewCorruptStateError(file string, cause error) *CorruptStateError {
	return &CorruptStateError{
		File:  file,
		Cause: cause,
	}
}

// PersistFailureError reports a failed write or rename of a persisted ledger
// file. The in-memory state remains authoritative for the rest of the
// process, but durability is compromised and the operator must be warned.
type PersistFailureError struct {
	File  string // Target file
	Op    string // Operation that failed ("create", "encode", "sync", "rename")
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *PersistFailureError) Error() string {
	return fmt.Sprintf("persist failure [file=%s, op=%s]: %v", e.File, e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PersistFailureError) Unwrap() error {
	return e.Cause
}

// NewPersistFailureError creates a new PersistFailureError.
func NewPersistFailureError(file, op string, cause error) *PersistFailureError {
	return &PersistFailureError{
		File:  file,
		Op:    op,
		Cause: cause,
	}
}

// MetadataValueError reports a metadata value outside the allowed variant
// set (string, bool, number, list of those, nested mapping).
type MetadataValueError struct {
	Key   string // Metadata key holding the value
	Value any    // Offending value
}

// Error implements the error interface.
func (e *MetadataValueError) Error() string {
	return fmt.Sprintf("unsupported metadata value [key=%s, type=%T]", e.Key, e.Value)
}

// NewMetadataValueError creates a new MetadataValueError.
func NewMetadataValueError(key string, value any) *MetadataValueError {
	return &MetadataValueError{
		Key:   key,
		Value: value,
	}
}

// ArchiveError reports a failed operation on the archive mirror. The mirror
// is derived state, so callers log these and carry on.
type ArchiveError struct {
	Backend   string // Archive backend ("sqlite", "memory")
	Operation string // Operation that failed ("save", "append", "query", "rebuild")
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s failed [backend=%s]: %v", e.Operation, e.Backend, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ArchiveError) Unwrap() error {
	return e.Cause
}

// NewArchiveError creates a new ArchiveError.
func NewArchiveError(backend, operation string, cause error) *ArchiveError {
	return &ArchiveError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// ExportError reports a failed case export. It carries the requested format
// and the number of records that were in flight.
type ExportError struct {
	Format      string // Requested format ("json", "csv")
	RecordCount int    // Records in the failed export
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed [format=%s, records=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{
		Format:      format,
		RecordCount: recordCount,
		Cause:       cause,
	}
}
