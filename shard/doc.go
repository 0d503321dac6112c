// Package shard implements the on-disk layout of a store: numbered shard
// files holding vectors and metadata in parallel positional slices, plus the
// index file tracking the open shard and per-shard entry counts.
//
// Shard files are codec payloads (JSON by default) wrapped in a zstd or lz4
// frame. Decoding sniffs the frame magic, so stores stay readable across
// compression changes. An absent shard or index file always decodes to its
// empty form; a file that exists but cannot be decoded fails with
// CorruptError.
package shard
