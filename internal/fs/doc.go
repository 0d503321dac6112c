// Package fs abstracts the filesystem operations behind the local blob
// store so tests can inject I/O failures.
//
// [LocalFS] is the production implementation; [FaultyFS] wraps any
// FileSystem and fails matching files at open, write, sync, close, rename
// or remove time.
//
// Operations here take no context.Context: local filesystem calls are not
// interruptible at the syscall level. Remote storage with real cancellation
// lives behind [blobstore.Store].
package fs
