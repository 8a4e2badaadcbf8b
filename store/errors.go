package store

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrReadOnly indicates a write was attempted inside View.
	ErrReadOnly = errors.New("store: read-only transaction")

	// ErrNilParam indicates a required parameter was nil.
	ErrNilParam = errors.New("store: nil parameter")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)
