package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/veclite/blobstore"
	"github.com/hupe1980/veclite/codec"
	"github.com/hupe1980/veclite/metadata"
	"github.com/hupe1980/veclite/model"
	"github.com/hupe1980/veclite/resource"
	"github.com/hupe1980/veclite/shard"
)

// DefaultMaxShardSize is the rollover bound used when Config.MaxShardSize
// is zero: once the open shard's file reaches this size, the next add
// starts a new shard.
const DefaultMaxShardSize = 4 << 20 // 4 MiB

// Config carries the construction parameters of an Engine. Zero values
// select the documented defaults.
type Config struct {
	// Dimension is the required vector length, fixed for the store's
	// lifetime and enforced on every insertion.
	Dimension int

	// MaxShardSize is the soft rollover bound in bytes. The check runs
	// after each write, so a shard may exceed the bound by up to one
	// write's encoded size. Defaults to DefaultMaxShardSize.
	MaxShardSize int64

	// SearchParallelism bounds concurrent shard loads during Search and
	// GetAll. Defaults to 1 (sequential, ascending shard order).
	SearchParallelism int

	// Codec serializes shard payloads and the index document. Defaults to
	// codec.Default.
	Codec codec.Codec

	// Compression is the shard file compression. Defaults to zstd.
	Compression shard.Compression

	// Resources gates shard loads and background work. Nil means
	// unlimited.
	Resources *resource.Controller

	// PurgeInterval, when positive, runs PurgeExpired on that interval in
	// a background goroutine until Close.
	PurgeInterval time.Duration

	// OnPurge, when set, observes the outcome of every background purge
	// cycle.
	OnPurge func(purged int, err error)
}

// Engine is the sharded storage and retrieval core: it owns the in-memory
// shard index and orchestrates shard loads, writes, rollover and index
// persistence for every operation.
//
// All methods are safe for concurrent use. Mutations serialize on an
// index-level lock; reads snapshot the index and then take one shard lock
// at a time, so searches run concurrently with each other and only contend
// with mutations per shard.
type Engine struct {
	dim          int
	maxShardSize int64
	parallelism  int

	shards *shard.FileStore
	index  *shard.IndexStore

	// mu guards ix. Mutating operations hold it for their whole duration,
	// so rollover decisions and count updates are never interleaved.
	mu sync.RWMutex
	ix *shard.Index

	locks     *lockTable
	resources *resource.Controller

	onPurge func(purged int, err error)

	closed      atomic.Bool
	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// Open loads the shard index from blobs and returns an engine over it. A
// store that has never been written to opens as empty.
func Open(ctx context.Context, blobs blobstore.Store, cfg Config) (*Engine, error) {
	if blobs == nil {
		return nil, errors.New("engine: blob store is nil")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("engine: dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.MaxShardSize <= 0 {
		cfg.MaxShardSize = DefaultMaxShardSize
	}
	if cfg.SearchParallelism <= 0 {
		cfg.SearchParallelism = 1
	}

	fsOpts := []shard.FileStoreOption{shard.WithCompression(cfg.Compression)}
	if cfg.Codec != nil {
		fsOpts = append(fsOpts, shard.WithCodec(cfg.Codec))
	}

	files := shard.NewFileStore(blobs, fsOpts...)
	indexStore := shard.NewIndexStore(blobs, cfg.Codec)

	ix, err := indexStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shard index: %w", err)
	}

	e := &Engine{
		dim:          cfg.Dimension,
		maxShardSize: cfg.MaxShardSize,
		parallelism:  cfg.SearchParallelism,
		shards:       files,
		index:        indexStore,
		ix:           ix,
		locks:        newLockTable(),
		resources:    cfg.Resources,
		onPurge:      cfg.OnPurge,
	}

	if cfg.PurgeInterval > 0 {
		e.startSweeper(cfg.PurgeInterval)
	}
	return e, nil
}

// Dimension returns the vector length the store was created with.
func (e *Engine) Dimension() int {
	return e.dim
}

// Add appends one vector with its metadata to the open shard and returns
// the location it was stored at. The shard is persisted before the index
// is updated; if the write pushed the shard past the size bound, the next
// add starts a new shard.
func (e *Engine) Add(ctx context.Context, vector []float32, doc metadata.Document) (model.Location, error) {
	if err := e.checkOpen(); err != nil {
		return model.Location{}, err
	}
	if err := e.checkDimension(vector); err != nil {
		return model.Location{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.ix.LastShard
	lock := e.locks.get(id)
	lock.Lock()
	defer lock.Unlock()

	sh, err := e.shards.Load(ctx, id)
	if err != nil {
		return model.Location{}, err
	}

	pos := sh.Append(vector, doc)

	written, err := e.shards.Save(ctx, id, sh)
	if err != nil {
		return model.Location{}, err
	}

	e.rollover(id, written)
	e.ix.SetCount(id, sh.Len())

	if err := e.index.Save(ctx, e.ix); err != nil {
		return model.Location{}, err
	}
	return model.Location{Shard: id, Index: pos}, nil
}

// AddBatch appends several vectors in a single shard write. Every vector
// is validated up front, so a dimension error leaves the store untouched.
// The whole batch lands in the open shard with one rollover check at the
// end, so the size bound may be exceeded by up to one batch.
//
// docs may be nil; otherwise it must be the same length as vectors.
func (e *Engine) AddBatch(ctx context.Context, vectors [][]float32, docs []metadata.Document) ([]model.Location, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if docs != nil && len(docs) != len(vectors) {
		return nil, fmt.Errorf("engine: %d vectors but %d metadata documents", len(vectors), len(docs))
	}
	for i, v := range vectors {
		if err := e.checkDimension(v); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.ix.LastShard
	lock := e.locks.get(id)
	lock.Lock()
	defer lock.Unlock()

	sh, err := e.shards.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	locs := make([]model.Location, len(vectors))
	for i, v := range vectors {
		var doc metadata.Document
		if docs != nil {
			doc = docs[i]
		}
		locs[i] = model.Location{Shard: id, Index: sh.Append(v, doc)}
	}

	written, err := e.shards.Save(ctx, id, sh)
	if err != nil {
		return nil, err
	}

	e.rollover(id, written)
	e.ix.SetCount(id, sh.Len())

	if err := e.index.Save(ctx, e.ix); err != nil {
		return nil, err
	}
	return locs, nil
}

// rollover advances the open shard when the just-written file has reached
// the size bound. Called with e.mu held; id is the shard that was written.
func (e *Engine) rollover(id model.ShardID, written int64) {
	if written >= e.maxShardSize {
		e.ix.LastShard = id + 1
	}
}

// Get returns the entry at loc, or ErrIndexOutOfRange when no entry lives
// there.
func (e *Engine) Get(ctx context.Context, loc model.Location) (model.Entry, error) {
	if err := e.checkOpen(); err != nil {
		return model.Entry{}, err
	}

	sh, err := e.loadShard(ctx, loc.Shard)
	if err != nil {
		return model.Entry{}, err
	}
	if loc.Index < 0 || loc.Index >= sh.Len() {
		return model.Entry{}, fmt.Errorf("%w: %v", ErrIndexOutOfRange, loc)
	}
	return model.Entry{
		Location: loc,
		Vector:   sh.Vectors[loc.Index],
		Metadata: sh.Metadata[loc.Index],
	}, nil
}

// GetAll returns every entry in the store in shard id order, position
// order within a shard.
func (e *Engine) GetAll(ctx context.Context) ([]model.Entry, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	last := e.ix.LastShard
	e.mu.RUnlock()

	perShard := make([][]model.Entry, last+1)
	err := e.scanShards(ctx, last, func(id model.ShardID, sh *shard.Shard) error {
		entries := make([]model.Entry, sh.Len())
		for i := range entries {
			entries[i] = model.Entry{
				Location: model.Location{Shard: id, Index: i},
				Vector:   sh.Vectors[i],
				Metadata: sh.Metadata[i],
			}
		}
		perShard[id] = entries
		return nil
	})
	if err != nil {
		return nil, err
	}

	var all []model.Entry
	for _, entries := range perShard {
		all = append(all, entries...)
	}
	return all, nil
}

// Delete removes the entry at loc. Later entries in the same shard shift
// down one position, so locations captured before the call no longer
// address the same entries; re-fetch after deleting.
func (e *Engine) Delete(ctx context.Context, loc model.Location) error {
	if err := e.checkOpen(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	lock := e.locks.get(loc.Shard)
	lock.Lock()
	defer lock.Unlock()

	sh, err := e.shards.Load(ctx, loc.Shard)
	if err != nil {
		return err
	}
	if !sh.RemoveAt(loc.Index) {
		return fmt.Errorf("%w: %v", ErrIndexOutOfRange, loc)
	}

	if _, err := e.shards.Save(ctx, loc.Shard, sh); err != nil {
		return err
	}

	e.ix.SetCount(loc.Shard, sh.Len())
	return e.index.Save(ctx, e.ix)
}

// Reset deletes every shard file and the index file, returning the store
// to its empty state. Absent files are skipped, so reset is idempotent.
// Nothing is written back; the index file reappears on the next mutation.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for id := model.ShardID(0); id <= e.ix.LastShard; id++ {
		lock := e.locks.get(id)
		lock.Lock()
		err := e.shards.Delete(ctx, id)
		lock.Unlock()
		if err != nil {
			return err
		}
	}
	if err := e.index.Delete(ctx); err != nil {
		return err
	}

	e.ix = shard.NewIndex()
	return nil
}

// Stats returns a point-in-time summary of the store. Counts come from the
// shard index; DiskBytes sums the persisted shard file sizes.
func (e *Engine) Stats(ctx context.Context) (model.Stats, error) {
	if err := e.checkOpen(); err != nil {
		return model.Stats{}, err
	}

	e.mu.RLock()
	ix := e.ix.Clone()
	e.mu.RUnlock()

	var disk int64
	for id := model.ShardID(0); id <= ix.LastShard; id++ {
		size, err := e.shards.SizeBytes(ctx, id)
		if err != nil {
			return model.Stats{}, err
		}
		disk += size
	}

	return model.Stats{
		LastShard:    ix.LastShard,
		Counts:       ix.Counts,
		TotalEntries: ix.TotalEntries(),
		DiskBytes:    disk,
	}, nil
}

// Close stops the background sweeper, waits for it to exit and marks the
// engine unusable. Safe to call more than once.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	if e.sweepCancel != nil {
		e.sweepCancel()
		<-e.sweepDone
	}
	return nil
}

func (e *Engine) checkOpen() error {
	if e.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (e *Engine) checkDimension(vector []float32) error {
	if len(vector) != e.dim {
		return fmt.Errorf("%w: store dimension is %d, vector has %d", ErrDimensionMismatch, e.dim, len(vector))
	}
	return nil
}

// loadShard loads one shard under its per-shard lock, charging the file
// size against the memory budget for the duration of the load.
func (e *Engine) loadShard(ctx context.Context, id model.ShardID) (*shard.Shard, error) {
	size, err := e.shards.SizeBytes(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.resources.AcquireMemory(ctx, size); err != nil {
		return nil, err
	}
	defer e.resources.ReleaseMemory(size)

	lock := e.locks.get(id)
	lock.Lock()
	defer lock.Unlock()
	return e.shards.Load(ctx, id)
}
