package veclite

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/veclite/model"
)

// Logger wraps slog.Logger to provide structured logging for store
// operations. All helpers return a new Logger and leave the receiver
// untouched.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger backed by the given slog handler.
func NewLogger(handler slog.Handler) *Logger {
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that writes human-readable records to
// stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger returns a Logger that discards all records.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithStore returns a Logger with the store name (directory or bucket)
// attached to every record.
func (l *Logger) WithStore(name string) *Logger {
	return &Logger{Logger: l.Logger.With("store", name)}
}

// WithShard returns a Logger with a shard id attached to every record.
func (l *Logger) WithShard(id model.ShardID) *Logger {
	return &Logger{Logger: l.Logger.With("shard", uint64(id))}
}

// LogAdd logs the outcome of an Add.
func (l *Logger) LogAdd(ctx context.Context, loc model.Location, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"shard", uint64(loc.Shard),
			"index", loc.Index,
			"duration", duration,
		)
	}
}

// LogBatchAdd logs the outcome of an AddBatch.
func (l *Logger) LogBatchAdd(ctx context.Context, count int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch add failed",
			"count", count,
			"duration", duration,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch add completed",
			"count", count,
			"duration", duration,
		)
	}
}

// LogSearch logs the outcome of a Search.
func (l *Logger) LogSearch(ctx context.Context, k, found int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"found", found,
			"duration", duration,
		)
	}
}

// LogDelete logs the outcome of a Delete.
func (l *Logger) LogDelete(ctx context.Context, loc model.Location, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"shard", uint64(loc.Shard),
			"index", loc.Index,
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"shard", uint64(loc.Shard),
			"index", loc.Index,
			"duration", duration,
		)
	}
}

// LogPurge logs the outcome of an expiry purge, foreground or background.
// Idle cycles log at debug so a short sweep interval does not flood the log.
func (l *Logger) LogPurge(ctx context.Context, purged int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "purge failed",
			"purged", purged,
			"error", err,
		)
	case purged > 0:
		l.InfoContext(ctx, "purge completed",
			"purged", purged,
		)
	default:
		l.DebugContext(ctx, "purge completed",
			"purged", purged,
		)
	}
}

// LogReset logs the outcome of a Reset.
func (l *Logger) LogReset(ctx context.Context, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reset failed",
			"duration", duration,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "reset completed",
			"duration", duration,
		)
	}
}
