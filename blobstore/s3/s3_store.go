package s3

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Client is the subset of the S3 API the stores need. *s3.Client satisfies it.
type Client interface {
	manager.UploadAPIClient
	s3.HeadObjectAPIClient
	s3.ListObjectsV2APIClient

	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements blobstore.Store on S3. Shards and the index are stored as
// whole objects; Put replaces the object in a single request, which S3 applies
// atomically per key.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	upload   UploadConfig
	uploader *manager.Uploader
}

// Options configures New.
type Options struct {
	// Prefix is prepended to all object keys (e.g. "stores/tenant-a").
	Prefix string
	// Region overrides the region from the default AWS config chain.
	Region string
	// Upload tunes how objects are written.
	Upload UploadConfig
}

// WithPrefix sets the root key prefix.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) func(*Options) {
	return func(o *Options) { o.Region = region }
}

// WithUploadConfig overrides the upload settings.
func WithUploadConfig(cfg UploadConfig) func(*Options) {
	return func(o *Options) { o.Upload = cfg }
}

// New creates a Store using the default AWS configuration chain
// (environment, shared config, IAM role).
func New(ctx context.Context, bucket string, optFns ...func(*Options)) (*Store, error) {
	o := Options{Upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&o)
	}

	var cfgOpts []func(*config.LoadOptions) error
	if o.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(o.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, err
	}

	store := NewStore(s3.NewFromConfig(cfg), bucket, o.Prefix)
	store.upload = o.Upload
	store.uploader = newUploader(store.client, o.Upload)
	return store, nil
}

// NewStore creates a Store on an existing client.
// rootPrefix is prepended to all keys (e.g. "my-db/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	cfg := DefaultUploadConfig()
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   rootPrefix,
		upload:   cfg,
		uploader: newUploader(client, cfg),
	}
}

func (s *Store) key(name string) string {
	return joinKey(s.prefix, name)
}

// Get reads the whole object.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	return getObject(ctx, s.client, s.bucket, s.key(name))
}

// Put writes the object in one shot. Small objects go through a single
// PutObject with a precomputed CRC32C checksum; larger ones use the
// multipart uploader.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)

	if s.upload.EnableChecksum && int64(len(data)) < s.upload.PartSize {
		return putWithChecksum(ctx, s.client, s.bucket, key, data)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if s.upload.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	_, err := s.uploader.Upload(ctx, input)
	return err
}

// Stat returns the object size in bytes.
func (s *Store) Stat(ctx context.Context, name string) (int64, error) {
	return statObject(ctx, s.client, s.bucket, s.key(name))
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns all object names under prefix, relative to the root prefix,
// sorted lexicographically.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return listObjects(ctx, s.client, s.bucket, s.key(prefix), s.prefix)
}
