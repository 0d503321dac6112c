package shard

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/veclite/metadata"
)

// Shard is the in-memory form of one shard file: two parallel slices where
// position i holds the vector and metadata of one entry. Positions are dense;
// removing an entry shifts everything behind it left.
type Shard struct {
	Vectors  [][]float32         `json:"vectors"`
	Metadata []metadata.Document `json:"metadata"`
}

// New returns an empty shard.
func New() *Shard {
	return &Shard{}
}

// Len returns the number of entries.
func (s *Shard) Len() int {
	return len(s.Vectors)
}

// Append adds an entry and returns its position.
func (s *Shard) Append(vector []float32, doc metadata.Document) int {
	s.Vectors = append(s.Vectors, vector)
	s.Metadata = append(s.Metadata, doc)
	return len(s.Vectors) - 1
}

// RemoveAt removes the entry at position i, shifting later entries left.
// Returns false when i is out of range.
func (s *Shard) RemoveAt(i int) bool {
	if i < 0 || i >= len(s.Vectors) {
		return false
	}
	s.Vectors = append(s.Vectors[:i], s.Vectors[i+1:]...)
	s.Metadata = append(s.Metadata[:i], s.Metadata[i+1:]...)
	return true
}

// RemovePositions removes every entry whose position is set in the bitmap,
// preserving the order of the survivors. Returns the number removed.
func (s *Shard) RemovePositions(positions *roaring.Bitmap) int {
	if positions == nil || positions.IsEmpty() {
		return 0
	}

	vectors := s.Vectors[:0]
	docs := s.Metadata[:0]
	removed := 0
	for i := range s.Vectors {
		if positions.Contains(uint32(i)) {
			removed++
			continue
		}
		vectors = append(vectors, s.Vectors[i])
		docs = append(docs, s.Metadata[i])
	}
	s.Vectors = vectors
	s.Metadata = docs
	return removed
}
