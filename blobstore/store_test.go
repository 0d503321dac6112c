package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract exercises the behavior every Store implementation must
// provide.
func testStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetAbsent", func(t *testing.T) {
		_, err := store.Get(ctx, "missing.bin")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("StatAbsent", func(t *testing.T) {
		_, err := store.Stat(ctx, "missing.bin")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteAbsent", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "missing.bin"))
	})

	t.Run("PutGetStat", func(t *testing.T) {
		data := []byte("hello shard")
		require.NoError(t, store.Put(ctx, "obj.bin", data))

		got, err := store.Get(ctx, "obj.bin")
		require.NoError(t, err)
		assert.Equal(t, data, got)

		size, err := store.Stat(ctx, "obj.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), size)
	})

	t.Run("PutReplaces", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "obj.bin", []byte("v1")))
		require.NoError(t, store.Put(ctx, "obj.bin", []byte("version two")))

		got, err := store.Get(ctx, "obj.bin")
		require.NoError(t, err)
		assert.Equal(t, []byte("version two"), got)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "shard_2.bin", []byte("b")))
		require.NoError(t, store.Put(ctx, "shard_10.bin", []byte("c")))
		require.NoError(t, store.Put(ctx, "index.json", []byte("i")))

		names, err := store.List(ctx, "shard_")
		require.NoError(t, err)
		assert.Equal(t, []string{"shard_10.bin", "shard_2.bin"}, names)

		all, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, all, "index.json")
	})

	t.Run("DeleteThenGet", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "gone.bin", []byte("x")))
		require.NoError(t, store.Delete(ctx, "gone.bin"))

		_, err := store.Get(ctx, "gone.bin")
		assert.ErrorIs(t, err, ErrNotFound)

		// Idempotent.
		assert.NoError(t, store.Delete(ctx, "gone.bin"))
	})
}
