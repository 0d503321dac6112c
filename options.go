package veclite

import (
	"log/slog"
	"time"

	"github.com/hupe1980/veclite/codec"
	"github.com/hupe1980/veclite/resource"
	"github.com/hupe1980/veclite/shard"
)

type options struct {
	maxShardSize      int64
	compression       shard.Compression
	codec             codec.Codec
	searchParallelism int
	purgeInterval     time.Duration
	lockTimeout       time.Duration
	resources         *resource.Controller
	logger            *Logger
	metricsCollector  MetricsCollector
}

// Option configures a Store at Open time.
type Option func(*options)

func applyOptions(optFns []Option) options {
	var o options
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}

// WithMaxShardSize caps the encoded size of a shard file in bytes. Once a
// write leaves a shard at or above the cap, the following write starts a
// fresh shard, so a file may exceed the cap by up to one write. Defaults
// to engine.DefaultMaxShardSize.
func WithMaxShardSize(bytes int64) Option {
	return func(o *options) {
		o.maxShardSize = bytes
	}
}

// WithCompression selects the compression applied to shard files. Defaults
// to zstd.
func WithCompression(c shard.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCodec overrides the codec used for shard payloads and the shard
// index. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithSearchConcurrency bounds how many shards Search and GetAll scan in
// parallel. Defaults to 1, which scans shards sequentially in ascending
// order.
func WithSearchConcurrency(n int) Option {
	return func(o *options) {
		o.searchParallelism = n
	}
}

// WithAutoPurge starts a background sweeper that removes expired entries
// every interval until Close. Disabled by default; expired entries then
// linger until a PurgeExpired call.
func WithAutoPurge(interval time.Duration) Option {
	return func(o *options) {
		o.purgeInterval = interval
	}
}

// WithLockTimeout makes Open wait up to d for the store lock instead of
// failing immediately with ErrStoreLocked.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

// WithResources attaches a resource controller that bounds shard-load
// memory, background workers, and disk throughput. Nil (the default)
// means unlimited.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithLogger sets the structured logger for store operations. Defaults to
// NoopLogger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel is shorthand for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the metrics sink for store operations.
// Defaults to NoopMetricsCollector.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(o *options) {
		if collector != nil {
			o.metricsCollector = collector
		}
	}
}
