// Package engine implements the sharded storage and retrieval core.
//
// An Engine orchestrates the shard file store and the shard index: every
// operation resolves shard ids through the index, loads whole shards,
// works on them in memory and, for mutations, writes the shard back and
// persists the index. Appends go to the open shard until its file reaches
// the configured size bound, then roll over to a fresh shard; search is
// exact and exhaustive across all shards.
//
// # Concurrency
//
// The engine owns one index-level lock plus a lazily grown mutex per
// shard, always acquired in that order. Mutations (Add, AddBatch, Delete,
// PurgeExpired, Reset) hold the index lock for their whole duration, so
// rollover and count updates never interleave. Reads (Search, Get, GetAll,
// Stats) snapshot the index under a read lock and then take each shard's
// mutex only while loading it, one shard at a time per worker.
//
// # Durability
//
// Every persisted step is an atomic full replace of one file. A crash
// mid-operation leaves the previous state of each file intact; the shard
// index may then undercount a shard that was written right before the
// crash, which is tolerated because on-disk shard contents are ground
// truth and counts are advisory.
//
// The veclite package wraps this engine with logging, metrics and
// directory locking; most callers want that instead.
package engine
