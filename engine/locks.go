package engine

import (
	"sync"

	"github.com/hupe1980/veclite/model"
)

// lockTable hands out one mutex per shard id, created on first use. A
// shard's mutex serializes the load-mutate-save sequence of every mutation
// touching it and the load step of concurrent readers.
type lockTable struct {
	mu    sync.Mutex
	locks map[model.ShardID]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[model.ShardID]*sync.Mutex)}
}

func (t *lockTable) get(id model.ShardID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}
