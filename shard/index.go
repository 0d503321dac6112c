package shard

import (
	"context"
	"errors"

	"github.com/hupe1980/veclite/blobstore"
	"github.com/hupe1980/veclite/codec"
	"github.com/hupe1980/veclite/model"
)

// IndexName is the file the index is stored under.
const IndexName = "index.json"

// Index is the store's root metadata: the shard currently open for appends
// and the entry count of every shard. Shard ids run from 0 to LastShard with
// no gaps; a shard with no file yet simply counts 0.
type Index struct {
	LastShard model.ShardID         `json:"last_shard"`
	Counts    map[model.ShardID]int `json:"counts"`
}

// NewIndex returns the index of an empty store.
func NewIndex() *Index {
	return &Index{Counts: make(map[model.ShardID]int)}
}

// Count returns the entry count of a shard.
func (ix *Index) Count(id model.ShardID) int {
	return ix.Counts[id]
}

// SetCount records the entry count of a shard.
func (ix *Index) SetCount(id model.ShardID, n int) {
	if ix.Counts == nil {
		ix.Counts = make(map[model.ShardID]int)
	}
	ix.Counts[id] = n
}

// TotalEntries sums the counts of all shards.
func (ix *Index) TotalEntries() int {
	total := 0
	for _, n := range ix.Counts {
		total += n
	}
	return total
}

// Clone returns a deep copy.
func (ix *Index) Clone() *Index {
	counts := make(map[model.ShardID]int, len(ix.Counts))
	for id, n := range ix.Counts {
		counts[id] = n
	}
	return &Index{LastShard: ix.LastShard, Counts: counts}
}

// IndexStore reads and writes the index file through a blob store.
type IndexStore struct {
	blobs blobstore.Store
	codec codec.Codec
}

// NewIndexStore creates an IndexStore on blobs. A nil codec falls back to
// codec.Default.
func NewIndexStore(blobs blobstore.Store, c codec.Codec) *IndexStore {
	if c == nil {
		c = codec.Default
	}
	return &IndexStore{blobs: blobs, codec: c}
}

// Load reads the index. An absent file is the index of an empty store, never
// an error.
func (s *IndexStore) Load(ctx context.Context) (*Index, error) {
	data, err := s.blobs.Get(ctx, IndexName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return NewIndex(), nil
	}
	if err != nil {
		return nil, err
	}

	var ix Index
	if err := s.codec.Unmarshal(data, &ix); err != nil {
		return nil, &CorruptError{Name: IndexName, Err: err}
	}
	if ix.Counts == nil {
		ix.Counts = make(map[model.ShardID]int)
	}
	return &ix, nil
}

// Save writes the index atomically.
func (s *IndexStore) Save(ctx context.Context, ix *Index) error {
	data, err := s.codec.Marshal(ix)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, IndexName, data)
}

// Delete removes the index file. Deleting an absent index is not an error.
func (s *IndexStore) Delete(ctx context.Context) error {
	return s.blobs.Delete(ctx, IndexName)
}
