package model

import (
	"fmt"

	"github.com/hupe1980/veclite/metadata"
)

// ShardID is the non-negative integer identity of one shard file.
type ShardID uint64

// Location addresses one entry: the shard it lives in plus its position
// within that shard. Positions are dense and shift down when an earlier
// entry in the same shard is deleted, so a Location is only valid until the
// next mutation of its shard.
type Location struct {
	Shard ShardID
	Index int
}

// String returns a string representation of the Location.
func (l Location) String() string {
	return fmt.Sprintf("Loc(%d:%d)", l.Shard, l.Index)
}

// Entry is one stored vector together with its metadata.
type Entry struct {
	Location
	Vector   []float32
	Metadata metadata.Document
}

// Result is one search hit. Score is metric-dependent: Euclidean distance
// (ascending) or cosine similarity (descending).
type Result struct {
	Location
	Score    float64
	Metadata metadata.Document
}

// Stats summarizes a store at a point in time. Counts are the advisory
// per-shard entry counts from the shard index; DiskBytes sums the persisted
// shard sizes.
type Stats struct {
	LastShard    ShardID
	Counts       map[ShardID]int
	TotalEntries int
	DiskBytes    int64
}
