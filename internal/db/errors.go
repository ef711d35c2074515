package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrIndexExists = errors.New("db: index already exists")
	// ErrUnavailable marks a failure to reach storage, as opposed to a command the server rejected.
	ErrUnavailable = errors.New("db: unavailable")
)

// Op names the storage command an Error came from.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpJSONSet     = "JSON.SET"
	OpJSONGet     = "JSON.GET"
)

// Error wraps a storage failure with the command that produced it.
// Transient errors match ErrUnavailable.
type Error struct {
	Op        string
	Err       error
	Transient bool
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Is reports a transient error as ErrUnavailable.
func (e *Error) Is(target error) bool { return e.Transient && target == ErrUnavailable }
