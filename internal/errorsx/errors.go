// Package errorsx provides the structured error taxonomy used throughout
// the indexing and search pipeline: a small set of error codes that map
// directly onto observable Status.phase transitions.
package errorsx

import (
	"errors"
	"fmt"
)

// Code identifies which branch of the error taxonomy an error belongs to.
type Code string

const (
	// Cancelled is a cooperative abort requested via a cancellation token.
	Cancelled Code = "cancelled"
	// ScannerFailure covers errors raised while walking the folder tree.
	ScannerFailure Code = "scanner_failure"
	// ReadFailure covers errors reading an individual file's bytes.
	ReadFailure Code = "read_failure"
	// PersistenceFailure covers errors saving or loading the on-disk store.
	PersistenceFailure Code = "persistence_failure"
	// EmbeddingProviderFailure covers errors from the embedding provider.
	EmbeddingProviderFailure Code = "embedding_provider_failure"
	// CorruptPersistedData marks data that failed to parse and was
	// silently recovered as empty; callers normally don't see this as an
	// error since the loader already handled it, but it is available for
	// logging.
	CorruptPersistedData Code = "corrupt_persisted_data"
	// ExtractorFailure covers symbol-extractor errors, always recovered by
	// the chunker falling back to text chunking.
	ExtractorFailure Code = "extractor_failure"
	// InvalidQuery marks an empty or whitespace-only search query. Not
	// treated as an error by callers -- it short-circuits to an empty
	// result.
	InvalidQuery Code = "invalid_query"
	// DisabledIndex marks a folder whose config.enabled is false.
	DisabledIndex Code = "disabled_index"
)

// Error is the structured error type carrying a taxonomy Code, an
// optional retryable hint and the underlying cause.
type Error struct {
	Code      Code
	Message   string
	Cause     error
	Retryable bool
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error from an existing error. Returns nil if err is nil.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error(), Cause: err}
}

// WithRetryable marks whether the failure can reasonably be retried by the
// caller. The orchestrator itself never retries -- retry policy belongs to
// the provider -- this only annotates the error for callers that do.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, &Error{Code: ScannerFailure}) style matching.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsCancelled reports whether err is (or wraps) a Cancelled error.
func IsCancelled(err error) bool {
	return CodeOf(err) == Cancelled
}

// CodeOf extracts the taxonomy code from err, or "" if err is not an
// *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
