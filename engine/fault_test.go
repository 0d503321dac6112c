package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/veclite/blobstore"
	"github.com/hupe1980/veclite/internal/fs"
	"github.com/hupe1980/veclite/metadata"
	"github.com/hupe1980/veclite/model"
	"github.com/hupe1980/veclite/shard"
)

// newFaultyEngine opens an engine over a local directory with an
// injectable filesystem underneath.
func newFaultyEngine(t *testing.T, cfg Config) (*Engine, *fs.FaultyFS) {
	t.Helper()

	faulty := fs.NewFaultyFS(fs.LocalFS{})
	blobs, err := blobstore.NewLocal(faulty, t.TempDir())
	require.NoError(t, err)

	return newTestEngineOn(t, blobs, cfg), faulty
}

func TestAddShardWriteFailure(t *testing.T) {
	ctx := context.Background()
	e, faulty := newFaultyEngine(t, Config{})

	_, err := e.Add(ctx, []float32{1, 2, 3}, metadata.Document{"name": metadata.String("before")})
	require.NoError(t, err)

	// Writes go to a temporary file first; failing its sync fails the
	// whole save.
	faulty.AddRule(shard.Name(0), fs.Fault{FailOnSync: true})

	_, err = e.Add(ctx, []float32{4, 5, 6}, nil)
	require.ErrorIs(t, err, fs.ErrInjected)
	faulty.ClearRules()

	// The failed add left the previous shard contents intact.
	entries, err := e.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, metadata.String("before"), entries[0].Metadata["name"])

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEntries)
}

func TestAddIndexWriteFailure(t *testing.T) {
	ctx := context.Background()
	e, faulty := newFaultyEngine(t, Config{})

	faulty.AddRule(shard.IndexName, fs.Fault{FailOnRename: true})

	_, err := e.Add(ctx, []float32{1, 2, 3}, nil)
	require.ErrorIs(t, err, fs.ErrInjected)
	faulty.ClearRules()

	// The shard write preceded the index failure; its contents are ground
	// truth and remain readable.
	entries, err := e.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeleteWriteFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	e, faulty := newFaultyEngine(t, Config{})

	loc, err := e.Add(ctx, []float32{1, 2, 3}, nil)
	require.NoError(t, err)

	faulty.AddRule(shard.Name(0), fs.Fault{FailOnRename: true})
	require.ErrorIs(t, e.Delete(ctx, loc), fs.ErrInjected)
	faulty.ClearRules()

	entries, err := e.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed delete must not drop the entry")
}

func TestUnreadableShardPropagates(t *testing.T) {
	ctx := context.Background()
	e, faulty := newFaultyEngine(t, Config{})

	_, err := e.Add(ctx, []float32{1, 2, 3}, nil)
	require.NoError(t, err)

	faulty.AddRule(shard.Name(0), fs.Fault{FailOnOpen: true})
	defer faulty.ClearRules()

	_, err = e.GetAll(ctx)
	assert.ErrorIs(t, err, fs.ErrInjected)

	_, err = e.Search(ctx, []float32{1, 2, 3}, 1)
	assert.ErrorIs(t, err, fs.ErrInjected)

	_, err = e.Add(ctx, []float32{4, 5, 6}, nil)
	assert.ErrorIs(t, err, fs.ErrInjected)
}

func TestCorruptShardSurfaces(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	e := newTestEngineOn(t, blobs, Config{})

	_, err := e.Add(ctx, []float32{1, 2, 3}, nil)
	require.NoError(t, err)

	// Overwrite the shard with bytes that are not a valid frame.
	require.NoError(t, blobs.Put(ctx, shard.Name(0), []byte("\x28\xb5\x2f\xfdgarbage")))

	var corrupt *shard.CorruptError

	_, err = e.Get(ctx, model.Location{Shard: 0, Index: 0})
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, shard.Name(0), corrupt.Name)

	_, err = e.Search(ctx, []float32{1, 2, 3}, 1)
	assert.ErrorAs(t, err, &corrupt)

	_, err = e.Add(ctx, []float32{4, 5, 6}, nil)
	assert.ErrorAs(t, err, &corrupt)
}
