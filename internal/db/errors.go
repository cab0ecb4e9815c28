package db

import (
	"context"
	"errors"
)

// Sentinel errors for database operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrIndexMissing     = errors.New("db: missing composite index")
	ErrPermissionDenied = errors.New("db: permission denied")
	ErrUnavailable      = errors.New("db: store unavailable")
)

// Op constants name store operations for error context.
const (
	OpGet    = "GET"
	OpSet    = "SET"
	OpSetEx  = "SETEX"
	OpDel    = "DEL"
	OpScan   = "SCAN"
	OpMGet   = "MGET"
	OpQuery  = "QUERY"
	OpPutDoc = "PUTDOC"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// FetchErrorKind is the classification the fetch fallback ladder
// branches on, decoupling it from provider-specific codes.
type FetchErrorKind int

// Fetch error classes.
const (
	FetchOther FetchErrorKind = iota
	FetchIndexMissing
	FetchPermissionDenied
	FetchNotFound
	FetchTransient
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchIndexMissing:
		return "index_missing"
	case FetchPermissionDenied:
		return "permission_denied"
	case FetchNotFound:
		return "not_found"
	case FetchTransient:
		return "transient"
	default:
		return "other"
	}
}

// ClassifyFetchError maps a store error onto a FetchErrorKind. Timeouts
// classify as transient so callers treat them like any other retryable
// store failure at their layer.
func ClassifyFetchError(err error) FetchErrorKind {
	switch {
	case errors.Is(err, ErrIndexMissing):
		return FetchIndexMissing
	case errors.Is(err, ErrPermissionDenied):
		return FetchPermissionDenied
	case errors.Is(err, ErrKeyNotFound):
		return FetchNotFound
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return FetchTransient
	default:
		return FetchOther
	}
}
