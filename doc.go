// Package veclite provides a minimal persistent vector store for Go.
//
// Veclite keeps vectors and their metadata in compressed shard files on a
// blob store, with a small JSON index tracking the shard layout. Shards
// are bounded in size and roll over automatically, so working-set memory
// stays proportional to one shard rather than the whole store. It trades
// raw throughput for simplicity and durability: every write lands on disk
// atomically before the call returns, and search is exact, not
// approximate.
//
// # Quick Start
//
// Local mode, one process at a time:
//
//	ctx := context.Background()
//	db, err := veclite.Open(ctx, "./data", 128)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	loc, err := db.Add(ctx, embedding, metadata.Document{
//		"title": metadata.String("intro"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := db.Search(ctx, query, 10,
//		veclite.WithMetric(distance.MetricCosine),
//	)
//
// # Backends
//
// Open stores shards as files in a directory and guards it with an
// advisory lock. OpenStore accepts any blobstore.Store, including the S3
// and MinIO backends in blobstore/s3 and blobstore/minio, for stores that
// live in object storage.
//
// # Expiry
//
// Entries whose metadata carries an expires_at timestamp can be removed
// in bulk with PurgeExpired, or continuously with the WithAutoPurge
// background sweeper.
//
// # Observability
//
// WithLogger attaches structured slog-based logging to every operation
// and WithMetricsCollector feeds latencies and outcomes to a collector of
// your choice; both default to no-ops.
package veclite
