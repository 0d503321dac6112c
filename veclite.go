package veclite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/hupe1980/veclite/blobstore"
	"github.com/hupe1980/veclite/distance"
	"github.com/hupe1980/veclite/engine"
	"github.com/hupe1980/veclite/metadata"
	"github.com/hupe1980/veclite/model"
)

// LockFileName is the advisory lock file Open creates inside the store
// directory to keep other processes out.
const LockFileName = ".veclite.lock"

// lockRetryDelay is how often a waiting Open re-attempts the store lock.
const lockRetryDelay = 50 * time.Millisecond

// SearchOption customizes a single Search call.
type SearchOption = engine.SearchOption

// WithMetric selects the distance metric that ranks one search. Defaults
// to distance.MetricL2.
func WithMetric(m distance.Metric) SearchOption {
	return engine.WithMetric(m)
}

// WithFilter restricts one search to entries whose metadata matches the
// filter set.
func WithFilter(f *metadata.FilterSet) SearchOption {
	return engine.WithFilter(f)
}

// Store is a persistent sharded vector store. All methods are safe for
// concurrent use by multiple goroutines.
type Store struct {
	engine  *engine.Engine
	logger  *Logger
	metrics MetricsCollector
	lock    *flock.Flock
}

// Open opens (or creates) a store in dir and takes an exclusive advisory
// lock on it, so a second process opening the same directory fails with
// ErrStoreLocked. Use WithLockTimeout to wait for the lock instead of
// failing immediately.
func Open(ctx context.Context, dir string, dimension int, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)
	o.logger = o.logger.WithStore(dir)

	blobs, err := blobstore.NewLocal(nil, dir)
	if err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := acquireLock(ctx, lock, o.lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrStoreLocked, dir)
	}

	s, err := open(ctx, blobs, dimension, o)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	s.lock = lock
	return s, nil
}

// OpenStore opens a store on an arbitrary blob backend, such as
// blobstore/s3 or blobstore/minio. No lock file is taken; on shared
// backends, keeping writers exclusive is the caller's concern.
func OpenStore(ctx context.Context, blobs blobstore.Store, dimension int, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)
	return open(ctx, blobs, dimension, o)
}

func open(ctx context.Context, blobs blobstore.Store, dimension int, o options) (*Store, error) {
	s := &Store{
		logger:  o.logger,
		metrics: o.metricsCollector,
	}

	eng, err := engine.Open(ctx, blobs, engine.Config{
		Dimension:         dimension,
		MaxShardSize:      o.maxShardSize,
		SearchParallelism: o.searchParallelism,
		Codec:             o.codec,
		Compression:       o.compression,
		Resources:         o.resources,
		PurgeInterval:     o.purgeInterval,
		OnPurge: func(purged int, err error) {
			s.logger.LogPurge(context.Background(), purged, err)
		},
	})
	if err != nil {
		return nil, err
	}
	s.engine = eng

	return s, nil
}

func acquireLock(ctx context.Context, lock *flock.Flock, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		return lock.TryLock()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if errors.Is(err, context.DeadlineExceeded) {
		return false, nil
	}
	return locked, err
}

// Dimension returns the fixed vector length of the store.
func (s *Store) Dimension() int {
	return s.engine.Dimension()
}

// Add appends a vector with optional metadata and returns the location it
// now occupies.
func (s *Store) Add(ctx context.Context, vector []float32, doc metadata.Document) (model.Location, error) {
	start := time.Now()
	loc, err := s.engine.Add(ctx, vector, doc)
	duration := time.Since(start)

	s.metrics.RecordAdd(duration, err)
	s.logger.LogAdd(ctx, loc, duration, err)

	return loc, err
}

// AddBatch appends vectors in order using one write per touched shard.
// docs may be nil; otherwise it must hold one document per vector.
func (s *Store) AddBatch(ctx context.Context, vectors [][]float32, docs []metadata.Document) ([]model.Location, error) {
	start := time.Now()
	locs, err := s.engine.AddBatch(ctx, vectors, docs)
	duration := time.Since(start)

	s.metrics.RecordBatchAdd(len(vectors), duration, err)
	s.logger.LogBatchAdd(ctx, len(vectors), duration, err)

	return locs, err
}

// Search returns the k entries nearest to query under the selected metric
// (L2 by default), best first, with ties broken by location.
func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...SearchOption) ([]model.Result, error) {
	start := time.Now()
	results, err := s.engine.Search(ctx, query, k, opts...)
	duration := time.Since(start)

	s.metrics.RecordSearch(k, duration, err)
	s.logger.LogSearch(ctx, k, len(results), duration, err)

	return results, err
}

// Get returns the entry at loc.
func (s *Store) Get(ctx context.Context, loc model.Location) (model.Entry, error) {
	return s.engine.Get(ctx, loc)
}

// GetAll returns every entry in the store, ordered by location.
func (s *Store) GetAll(ctx context.Context) ([]model.Entry, error) {
	return s.engine.GetAll(ctx)
}

// Delete removes the entry at loc. Entries after it in the same shard
// shift down one position, so their locations change.
func (s *Store) Delete(ctx context.Context, loc model.Location) error {
	start := time.Now()
	err := s.engine.Delete(ctx, loc)
	duration := time.Since(start)

	s.metrics.RecordDelete(duration, err)
	s.logger.LogDelete(ctx, loc, duration, err)

	return err
}

// PurgeExpired removes every entry whose expires_at metadata lies at or
// before now and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	purged, err := s.engine.PurgeExpired(ctx, now)
	duration := time.Since(start)

	s.metrics.RecordPurge(purged, duration, err)
	s.logger.LogPurge(ctx, purged, err)

	return purged, err
}

// Reset deletes every shard file and the shard index, leaving an empty
// store that remains usable.
func (s *Store) Reset(ctx context.Context) error {
	start := time.Now()
	err := s.engine.Reset(ctx)
	duration := time.Since(start)

	s.metrics.RecordReset(duration, err)
	s.logger.LogReset(ctx, duration, err)

	return err
}

// Stats reports the shard layout and on-disk footprint.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	return s.engine.Stats(ctx)
}

// Close stops background work and releases the store lock. Close is
// idempotent; operations after it return ErrClosed.
func (s *Store) Close() error {
	err := s.engine.Close()

	if s.lock != nil {
		if uerr := s.lock.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}
