package engine

import (
	"context"
	"errors"
	"time"
)

// startSweeper begins the background expiry loop. The loop runs until
// Close cancels its context; [GoSafe] keeps a panicking cycle from taking
// the process down.
func (e *Engine) startSweeper(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	e.sweepCancel = cancel
	e.sweepDone = make(chan struct{})

	GoSafe("expiry sweeper", func() {
		defer close(e.sweepDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.sweep(ctx)
			}
		}
	})
}

// sweep runs one purge cycle. The cycle is skipped when every background
// slot is busy, and its reads are paced against the IO budget sized by the
// store's current disk usage.
func (e *Engine) sweep(ctx context.Context) {
	if !e.resources.TryAcquireBackground() {
		return
	}
	defer e.resources.ReleaseBackground()

	if stats, err := e.Stats(ctx); err == nil {
		if err := e.resources.WaitIO(ctx, int(stats.DiskBytes)); err != nil {
			return
		}
	}

	purged, err := e.PurgeExpired(ctx, time.Now())
	if errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
		return
	}
	if e.onPurge != nil {
		e.onPurge(purged, err)
	}
}
