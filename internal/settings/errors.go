package settings

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by coordinator operations issued after Close.
var ErrClosed = errors.New("settings coordinator closed")

// ErrorType represents the category of a settings failure
type ErrorType int

const (
	// ErrTypeLoad indicates the stored record could not be read or decoded
	ErrTypeLoad ErrorType = iota
	// ErrTypePersist indicates a save to the store failed
	ErrTypePersist
	// ErrTypePlatformAdapter indicates an OS-level side effect failed
	ErrTypePlatformAdapter
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeLoad:
		return "LoadFailure"
	case ErrTypePersist:
		return "PersistFailure"
	case ErrTypePlatformAdapter:
		return "PlatformAdapterFailure"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is a settings failure. None of these are fatal: the coordinator logs
// them and keeps the in-memory value authoritative.
type Error struct {
	Type    ErrorType
	Op      string // e.g. "load", "save", "startup.enable"
	Version uint64 // snapshot version the failure relates to
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s during %s (version %d): %v", e.Type, e.Op, e.Version, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, op string, version uint64, err error) *Error {
	return &Error{Type: t, Op: op, Version: version, Err: err}
}

// IsLoadFailure checks if err is a LoadFailure
func IsLoadFailure(err error) bool {
	return hasType(err, ErrTypeLoad)
}

// IsPersistFailure checks if err is a PersistFailure
func IsPersistFailure(err error) bool {
	return hasType(err, ErrTypePersist)
}

// IsPlatformAdapterFailure checks if err is a PlatformAdapterFailure
func IsPlatformAdapterFailure(err error) bool {
	return hasType(err, ErrTypePlatformAdapter)
}

func hasType(err error, t ErrorType) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Type == t
	}
	return false
}
