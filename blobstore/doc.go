// Package blobstore abstracts the byte storage that shard files and the
// index document live in.
//
// [Store] is a whole-object interface: Get, Put, Stat, Delete, List.
// Implementations must be safe for concurrent use and must make Put atomic
// from a reader's point of view.
//
// # Built-in Implementations
//
//   - [Local]: a directory on the local filesystem; Put writes a temp file,
//     fsyncs, renames, and syncs the directory
//   - [Memory]: map-backed, for tests and ephemeral stores
//   - s3.Store: Amazon S3 (object puts are atomic by nature)
//   - s3.CommitStore: S3 plus DynamoDB-versioned index commits for safe
//     multi-writer coordination
//   - minio.Store: any S3-compatible endpoint
package blobstore
