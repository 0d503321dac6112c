package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/veclite/distance"
	"github.com/hupe1980/veclite/metadata"
	"github.com/hupe1980/veclite/model"
	"github.com/hupe1980/veclite/shard"
)

type searchOptions struct {
	metric distance.Metric
	filter *metadata.FilterSet
}

// SearchOption customizes one search call.
type SearchOption func(*searchOptions)

// WithMetric selects the ranking metric. Defaults to Euclidean distance.
func WithMetric(m distance.Metric) SearchOption {
	return func(o *searchOptions) {
		o.metric = m
	}
}

// WithFilter restricts candidates to entries matching every clause of the
// filter set. Entries missing a filtered key never match. A nil filter
// admits everything.
func WithFilter(f *metadata.FilterSet) SearchOption {
	return func(o *searchOptions) {
		o.filter = f
	}
}

// Search returns the k entries nearest to query under the chosen metric,
// scanning every shard exhaustively. Results come best score first; equal
// scores order by shard id, then position, so results are deterministic.
// An empty store, or a filter nothing matches, returns an empty slice.
func (e *Engine) Search(ctx context.Context, query []float32, k int, opts ...SearchOption) ([]model.Result, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidK, k)
	}
	if err := e.checkDimension(query); err != nil {
		return nil, err
	}

	o := searchOptions{metric: distance.MetricL2}
	for _, opt := range opts {
		opt(&o)
	}

	scorer, err := distance.Provider(o.metric)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	last := e.ix.LastShard
	e.mu.RUnlock()

	var (
		resMu   sync.Mutex
		results []model.Result
	)
	err = e.scanShards(ctx, last, func(id model.ShardID, sh *shard.Shard) error {
		// Per-shard top-k bounds the merge buffer at k entries per shard.
		// That loses nothing: a shard's contribution to the global top-k
		// is always within its own top-k.
		top := searchShard(sh, id, query, k, scorer, o.metric, o.filter)
		if len(top) == 0 {
			return nil
		}
		resMu.Lock()
		results = append(results, top...)
		resMu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortResults(results, o.metric)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// scanShards runs fn over every shard in [0, last], loading at most
// parallelism shards concurrently. Each worker holds its shard's lock only
// for the load, and the shard's file size is charged against the memory
// budget until fn returns.
func (e *Engine) scanShards(ctx context.Context, last model.ShardID, fn func(id model.ShardID, sh *shard.Shard) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for id := model.ShardID(0); id <= last; id++ {
		g.Go(func() error {
			size, err := e.shards.SizeBytes(ctx, id)
			if err != nil {
				return err
			}
			if err := e.resources.AcquireMemory(ctx, size); err != nil {
				return err
			}
			defer e.resources.ReleaseMemory(size)

			lock := e.locks.get(id)
			lock.Lock()
			sh, err := e.shards.Load(ctx, id)
			lock.Unlock()
			if err != nil {
				return err
			}
			return fn(id, sh)
		})
	}
	return g.Wait()
}

// searchShard scores one shard's candidates and returns its best k.
func searchShard(sh *shard.Shard, id model.ShardID, query []float32, k int, scorer distance.Func, metric distance.Metric, filter *metadata.FilterSet) []model.Result {
	candidates := candidatePositions(sh, filter)
	if candidates.IsEmpty() {
		return nil
	}

	results := make([]model.Result, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		results = append(results, model.Result{
			Location: model.Location{Shard: id, Index: i},
			Score:    scorer(query, sh.Vectors[i]),
			Metadata: sh.Metadata[i],
		})
	}

	sortResults(results, metric)
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// candidatePositions returns the positions eligible for scoring. A nil
// filter admits every position.
func candidatePositions(sh *shard.Shard, filter *metadata.FilterSet) *roaring.Bitmap {
	candidates := roaring.New()
	if filter == nil {
		candidates.AddRange(0, uint64(sh.Len()))
		return candidates
	}
	for i, doc := range sh.Metadata {
		if filter.Matches(doc) {
			candidates.Add(uint32(i))
		}
	}
	return candidates
}

// sortResults orders by score under the metric (distance ascending,
// similarity descending), then shard id, then position.
func sortResults(results []model.Result, metric distance.Metric) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return metric.Better(a.Score, b.Score)
		}
		if a.Shard != b.Shard {
			return a.Shard < b.Shard
		}
		return a.Index < b.Index
	})
}
