package engine

import (
	"context"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/veclite/metadata"
	"github.com/hupe1980/veclite/model"
)

// PurgeExpired removes every entry whose expires_at lies at or before now
// and returns how many were removed. Shards with nothing expired are not
// rewritten, but every shard's count is refreshed, and the index is saved
// once at the end.
func (e *Engine) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	purged := 0
	for id := model.ShardID(0); id <= e.ix.LastShard; id++ {
		removed, remaining, err := e.purgeShard(ctx, id, now)
		if err != nil {
			return purged, err
		}
		purged += removed
		e.ix.SetCount(id, remaining)
	}

	if err := e.index.Save(ctx, e.ix); err != nil {
		return purged, err
	}
	return purged, nil
}

// purgeShard rewrites one shard without its expired entries, returning how
// many were removed and how many remain. Survivors keep their relative
// order.
func (e *Engine) purgeShard(ctx context.Context, id model.ShardID, now time.Time) (int, int, error) {
	lock := e.locks.get(id)
	lock.Lock()
	defer lock.Unlock()

	sh, err := e.shards.Load(ctx, id)
	if err != nil {
		return 0, 0, err
	}

	expired := roaring.New()
	for i, doc := range sh.Metadata {
		if metadata.Expired(doc, now) {
			expired.Add(uint32(i))
		}
	}
	if expired.IsEmpty() {
		return 0, sh.Len(), nil
	}

	removed := sh.RemovePositions(expired)
	if _, err := e.shards.Save(ctx, id, sh); err != nil {
		return 0, 0, err
	}
	return removed, sh.Len(), nil
}
