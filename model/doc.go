// Package model defines the small shared types passed between the engine,
// the shard stores and the public facade.
//
//   - [ShardID]: identity of one shard file (uint64)
//   - [Location]: physical address of an entry (shard, position)
//   - [Entry]: a stored vector with its metadata
//   - [Result]: one search hit with its metric-dependent score
//   - [Stats]: point-in-time store summary
package model
