package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations return errors satisfying errors.Is(err, ErrNotFound).
// The default maps to os.ErrNotExist, so local filesystem errors satisfy it
// without translation.
var ErrNotFound = os.ErrNotExist

// Store is a whole-object byte store. Shards are always read and written in
// full (the payload is compressed, so partial reads buy nothing), which
// keeps the backend contract small: five operations, each atomic from the
// reader's point of view.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the full content of the named object, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put atomically replaces the named object. Readers never observe a
	// partially-written object: they see the old content or the new.
	Put(ctx context.Context, name string, data []byte) error

	// Stat returns the persisted size of the object, or ErrNotFound.
	Stat(ctx context.Context, name string) (int64, error)

	// Delete removes the object. Absence is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of objects with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
