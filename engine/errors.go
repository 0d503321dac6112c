package engine

import "errors"

// Engine-layer sentinels. The veclite package re-exports these as its
// public error contract; match them with errors.Is since call sites wrap
// them with context.
var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the dimension the store was created with. The store is left untouched.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexOutOfRange is returned when a location does not address a
	// live entry, including when the shard has no file yet.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidK is returned when a search asks for a non-positive number
	// of results.
	ErrInvalidK = errors.New("k must be positive")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("engine is closed")
)
