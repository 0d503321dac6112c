package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/veclite/internal/fs"
)

// Local implements Store on a directory of the local filesystem.
//
// Put follows the temp-file-then-rename discipline: the object is written to
// a sidecar, fsynced, renamed over the destination, and the directory is
// synced so the rename itself is durable. A crash mid-write leaves the old
// object intact; it can never leave a truncated object behind.
type Local struct {
	fsys fs.FileSystem
	dir  string
}

// NewLocal creates a Local store rooted at dir, creating it if absent.
// A nil fsys uses the real filesystem; tests pass a fs.FaultyFS.
func NewLocal(fsys fs.FileSystem, dir string) (*Local, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return &Local{fsys: fsys, dir: dir}, nil
}

// Dir returns the root directory of the store.
func (l *Local) Dir() string { return l.dir }

func (l *Local) path(name string) string {
	return filepath.Join(l.dir, name)
}

// Get returns the full content of the named object.
func (l *Local) Get(_ context.Context, name string) ([]byte, error) {
	f, err := l.fsys.OpenFile(l.path(name), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// Put atomically replaces the named object.
func (l *Local) Put(_ context.Context, name string, data []byte) error {
	path := l.path(name)
	tmpPath := path + ".tmp"

	f, err := l.fsys.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		l.fsys.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		l.fsys.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		l.fsys.Remove(tmpPath)
		return err
	}

	if err := l.fsys.Rename(tmpPath, path); err != nil {
		l.fsys.Remove(tmpPath)
		return err
	}

	return l.syncDir()
}

// Stat returns the persisted size of the object.
func (l *Local) Stat(_ context.Context, name string) (int64, error) {
	info, err := l.fsys.Stat(l.path(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Delete removes the object; absence is not an error.
func (l *Local) Delete(_ context.Context, name string) error {
	err := l.fsys.Remove(l.path(name))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns the names of objects with the given prefix, sorted.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := l.fsys.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (l *Local) syncDir() error {
	f, err := l.fsys.OpenFile(l.dir, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
