package veclite

import (
	"errors"

	"github.com/hupe1980/veclite/engine"
)

// Sentinel errors returned by Store operations. Most originate in the
// engine package and are re-exported here so callers can match them with
// errors.Is without a second import.
var (
	// ErrDimensionMismatch is returned when a vector's length does not
	// match the store dimension.
	ErrDimensionMismatch = engine.ErrDimensionMismatch

	// ErrIndexOutOfRange is returned when a location does not name an
	// existing entry.
	ErrIndexOutOfRange = engine.ErrIndexOutOfRange

	// ErrInvalidK is returned when Search is called with k < 1.
	ErrInvalidK = engine.ErrInvalidK

	// ErrClosed is returned by every operation after Close.
	ErrClosed = engine.ErrClosed

	// ErrStoreLocked is returned by Open when another process holds the
	// store directory's lock file.
	ErrStoreLocked = errors.New("store is locked by another process")
)
