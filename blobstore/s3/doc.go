// Package s3 provides S3 implementations of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("vectors/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	db, err := veclite.OpenStore(ctx, store, 128)
//
// # Features
//
//   - Whole-object reads and writes matching the shard file model
//   - CRC32C integrity validation on uploads
//   - Multipart uploads for large shards
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//
// For concurrent writers, wrap the store in a CommitStore to serialize index
// updates through DynamoDB conditional writes. For S3 Express One Zone
// directory buckets, use ExpressStore.
package s3
