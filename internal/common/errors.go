// Package common defines the sentinel errors and the typed error taxonomy
// shared by the docvault components. Callers should use errors.Is and
// errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Validation errors.
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrTooLarge          = errors.New("file too large")

	// Adapter-level errors.
	ErrStorage    = errors.New("storage error")
	ErrRepository = errors.New("repository error")

	// Catalog errors.
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidStatus    = errors.New("invalid document status")

	// Configuration errors (missing or malformed settings).
	ErrConfig = errors.New("configuration error")
)

// ValidationKind enumerates the reasons a candidate file is rejected.
type ValidationKind int

const (
	KindNotFound ValidationKind = iota + 1
	KindUnsupportedFormat
	KindTooLarge
)

func (k ValidationKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindTooLarge:
		return "TooLarge"
	default:
		return fmt.Sprintf("ValidationKind(%d)", int(k))
	}
}

// ValidationError rejects a file before any side effect happened.
// Message is the human-readable text returned to the caller as is.
type ValidationError struct {
	Kind    ValidationKind
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches the sentinel that corresponds to Kind.
func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindUnsupportedFormat:
		return target == ErrUnsupportedFormat
	case KindTooLarge:
		return target == ErrTooLarge
	}
	return false
}

// StorageError reports a failed blob store operation. The cause is opaque
// to the pipeline; only the fact of failure matters.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s error: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("storage %s error for %s: %v", e.Op, e.Key, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// RepositoryError reports a failed catalog operation.
type RepositoryError struct {
	Op    string
	Cause error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("database %s error: %v", e.Op, e.Cause)
}

func (e *RepositoryError) Unwrap() error { return e.Cause }

func (e *RepositoryError) Is(target error) bool { return target == ErrRepository }
