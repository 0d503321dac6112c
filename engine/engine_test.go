package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/veclite/blobstore"
	"github.com/hupe1980/veclite/metadata"
	"github.com/hupe1980/veclite/model"
)

// newTestEngine opens an engine over a fresh in-memory store. Zero config
// fields get test defaults (dimension 3).
func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()

	e := newTestEngineOn(t, blobstore.NewMemory(), cfg)
	return e
}

func newTestEngineOn(t *testing.T, blobs blobstore.Store, cfg Config) *Engine {
	t.Helper()

	if cfg.Dimension == 0 {
		cfg.Dimension = 3
	}

	e, err := Open(context.Background(), blobs, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpenValidation(t *testing.T) {
	t.Run("nil blob store", func(t *testing.T) {
		_, err := Open(context.Background(), nil, Config{Dimension: 3})
		require.Error(t, err)
	})

	t.Run("non-positive dimension", func(t *testing.T) {
		_, err := Open(context.Background(), blobstore.NewMemory(), Config{})
		require.Error(t, err)

		_, err = Open(context.Background(), blobstore.NewMemory(), Config{Dimension: -1})
		require.Error(t, err)
	})
}

func TestAddReturnsSequentialLocations(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})

	for i := 0; i < 3; i++ {
		loc, err := e.Add(ctx, []float32{1, 2, 3}, nil)
		require.NoError(t, err)
		assert.Equal(t, model.Location{Shard: 0, Index: i}, loc)
	}
}

func TestAddDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{Dimension: 3})

	_, err := e.Add(ctx, []float32{1, 2, 3}, nil)
	require.NoError(t, err)

	for _, vector := range [][]float32{nil, {}, {1}, {1, 2, 3, 4}} {
		_, err := e.Add(ctx, vector, nil)
		require.ErrorIs(t, err, ErrDimensionMismatch)
	}

	// The failed adds left nothing behind.
	entries, err := e.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAddRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})

	doc := metadata.Document{
		"name":   metadata.String("probe"),
		"weight": metadata.Float(0.25),
		"tags":   metadata.Array([]metadata.Value{metadata.String("a"), metadata.Int(7)}),
		"nested": metadata.Object(map[string]metadata.Value{"ok": metadata.Bool(true)}),
	}
	vector := []float32{0.5, -1.25, 3}

	loc, err := e.Add(ctx, vector, doc)
	require.NoError(t, err)

	entries, err := e.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, loc, entries[0].Location)
	assert.Equal(t, vector, entries[0].Vector)
	assert.Equal(t, doc, entries[0].Metadata)
}

func TestRollover(t *testing.T) {
	ctx := context.Background()
	// Every write is at least one byte, so each add fills its shard.
	e := newTestEngine(t, Config{MaxShardSize: 1})

	for i := 0; i < 3; i++ {
		loc, err := e.Add(ctx, []float32{float32(i), 0, 0}, nil)
		require.NoError(t, err)
		assert.Equal(t, model.ShardID(i), loc.Shard, "each add should land in a fresh shard")
		assert.Equal(t, 0, loc.Index)
	}

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ShardID(3), stats.LastShard)
	assert.Equal(t, map[model.ShardID]int{0: 1, 1: 1, 2: 1}, stats.Counts)
}

func TestNoRolloverBelowBound(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{MaxShardSize: 1 << 20})

	for i := 0; i < 10; i++ {
		loc, err := e.Add(ctx, []float32{1, 2, 3}, nil)
		require.NoError(t, err)
		assert.Equal(t, model.ShardID(0), loc.Shard)
	}

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ShardID(0), stats.LastShard)
	assert.Equal(t, 10, stats.TotalEntries)
}

func TestAddBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("single write", func(t *testing.T) {
		e := newTestEngine(t, Config{})

		vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
		docs := []metadata.Document{
			{"i": metadata.Int(0)},
			{"i": metadata.Int(1)},
			{"i": metadata.Int(2)},
		}

		locs, err := e.AddBatch(ctx, vectors, docs)
		require.NoError(t, err)
		require.Len(t, locs, 3)
		for i, loc := range locs {
			assert.Equal(t, model.Location{Shard: 0, Index: i}, loc)
		}

		entries, err := e.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, docs[2], entries[2].Metadata)
	})

	t.Run("nil docs allowed", func(t *testing.T) {
		e := newTestEngine(t, Config{})

		locs, err := e.AddBatch(ctx, [][]float32{{1, 2, 3}, {4, 5, 6}}, nil)
		require.NoError(t, err)
		assert.Len(t, locs, 2)
	})

	t.Run("length mismatch", func(t *testing.T) {
		e := newTestEngine(t, Config{})

		_, err := e.AddBatch(ctx, [][]float32{{1, 2, 3}}, make([]metadata.Document, 2))
		require.Error(t, err)
	})

	t.Run("dimension error leaves store untouched", func(t *testing.T) {
		e := newTestEngine(t, Config{})

		_, err := e.AddBatch(ctx, [][]float32{{1, 2, 3}, {1, 2}}, nil)
		require.ErrorIs(t, err, ErrDimensionMismatch)

		entries, err := e.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("empty batch", func(t *testing.T) {
		e := newTestEngine(t, Config{})

		locs, err := e.AddBatch(ctx, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, locs)
	})

	t.Run("one rollover check per batch", func(t *testing.T) {
		e := newTestEngine(t, Config{MaxShardSize: 1})

		locs, err := e.AddBatch(ctx, [][]float32{{1, 2, 3}, {4, 5, 6}}, nil)
		require.NoError(t, err)
		require.Len(t, locs, 2)

		// The whole batch lands in shard 0; rollover only affects what
		// comes after.
		assert.Equal(t, model.ShardID(0), locs[0].Shard)
		assert.Equal(t, model.ShardID(0), locs[1].Shard)

		loc, err := e.Add(ctx, []float32{7, 8, 9}, nil)
		require.NoError(t, err)
		assert.Equal(t, model.ShardID(1), loc.Shard)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})

	doc := metadata.Document{"k": metadata.String("v")}
	loc, err := e.Add(ctx, []float32{1, 2, 3}, doc)
	require.NoError(t, err)

	entry, err := e.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, entry.Vector)
	assert.Equal(t, doc, entry.Metadata)

	for _, bad := range []model.Location{
		{Shard: 0, Index: 1},
		{Shard: 0, Index: -1},
		{Shard: 99, Index: 0},
	} {
		_, err := e.Get(ctx, bad)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "location %v", bad)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ShardID(0), stats.LastShard)
	assert.Equal(t, 0, stats.TotalEntries)
	assert.Zero(t, stats.DiskBytes)

	for i := 0; i < 4; i++ {
		_, err := e.Add(ctx, []float32{float32(i), 0, 0}, nil)
		require.NoError(t, err)
	}

	stats, err = e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalEntries)
	assert.Equal(t, 4, stats.Counts[0])
	assert.Positive(t, stats.DiskBytes)
}

func TestReopenResumesState(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()

	e := newTestEngineOn(t, blobs, Config{MaxShardSize: 1})
	for i := 0; i < 3; i++ {
		_, err := e.Add(ctx, []float32{float32(i), 0, 0}, metadata.Document{"i": metadata.Int(int64(i))})
		require.NoError(t, err)
	}
	require.NoError(t, e.Close())

	reopened := newTestEngineOn(t, blobs, Config{MaxShardSize: 1})

	entries, err := reopened.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// The open shard carries over: shards 0..2 are full, so the next add
	// goes to shard 3.
	loc, err := reopened.Add(ctx, []float32{9, 9, 9}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ShardID(3), loc.Shard)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})

	_, err := e.Add(ctx, []float32{1, 2, 3}, nil)
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "close is idempotent")

	_, err = e.Add(ctx, []float32{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.Search(ctx, []float32{1, 2, 3}, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.GetAll(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.Stats(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.Delete(ctx, model.Location{}), ErrClosed)
	assert.ErrorIs(t, e.Reset(ctx), ErrClosed)
	_, err = e.PurgeExpired(ctx, time.Now())
	assert.ErrorIs(t, err, ErrClosed)
}
