package shard

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/veclite/blobstore"
	"github.com/hupe1980/veclite/codec"
	"github.com/hupe1980/veclite/model"
)

// ErrCorrupt matches any CorruptError via errors.Is, for callers that do
// not care which file is affected.
var ErrCorrupt = errors.New("corrupt data")

// CorruptError reports a shard or index file whose contents cannot be
// decoded. The store treats affected operations as failed rather than
// guessing at partial contents.
type CorruptError struct {
	Name string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt file %s: %v", e.Name, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// Name returns the file name of a shard.
func Name(id model.ShardID) string {
	return fmt.Sprintf("shard_%d.bin", id)
}

// FileStore reads and writes whole shard files through a blob store.
type FileStore struct {
	blobs       blobstore.Store
	codec       codec.Codec
	compression Compression
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithCodec sets the payload codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) FileStoreOption {
	return func(s *FileStore) { s.codec = c }
}

// WithCompression sets the on-disk compression. Defaults to zstd.
func WithCompression(c Compression) FileStoreOption {
	return func(s *FileStore) { s.compression = c }
}

// NewFileStore creates a FileStore on blobs.
func NewFileStore(blobs blobstore.Store, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		blobs:       blobs,
		codec:       codec.Default,
		compression: CompressionZstd,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the shard with the given id. An absent file is an empty shard,
// never an error.
func (s *FileStore) Load(ctx context.Context, id model.ShardID) (*Shard, error) {
	name := Name(id)

	data, err := s.blobs.Get(ctx, name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}

	payload, err := decompress(data)
	if err != nil {
		return nil, &CorruptError{Name: name, Err: err}
	}

	var sh Shard
	if err := s.codec.Unmarshal(payload, &sh); err != nil {
		return nil, &CorruptError{Name: name, Err: err}
	}
	if len(sh.Vectors) != len(sh.Metadata) {
		return nil, &CorruptError{
			Name: name,
			Err:  fmt.Errorf("%d vectors but %d metadata entries", len(sh.Vectors), len(sh.Metadata)),
		}
	}
	return &sh, nil
}

// Save writes the shard atomically and returns the number of bytes written,
// which callers compare against the rollover threshold.
func (s *FileStore) Save(ctx context.Context, id model.ShardID, sh *Shard) (int64, error) {
	payload, err := s.codec.Marshal(sh)
	if err != nil {
		return 0, err
	}

	data, err := compress(payload, s.compression)
	if err != nil {
		return 0, err
	}

	if err := s.blobs.Put(ctx, Name(id), data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// SizeBytes returns the on-disk size of a shard file, 0 when absent.
func (s *FileStore) SizeBytes(ctx context.Context, id model.ShardID) (int64, error) {
	size, err := s.blobs.Stat(ctx, Name(id))
	if errors.Is(err, blobstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return size, nil
}

// Delete removes a shard file. Deleting an absent shard is not an error.
func (s *FileStore) Delete(ctx context.Context, id model.ShardID) error {
	return s.blobs.Delete(ctx, Name(id))
}
