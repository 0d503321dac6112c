package veclite

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives timing signals from store operations.
// Implementations must be safe for concurrent use.
//
// Adapters to real metrics systems stay small. A Prometheus collector
// looks like:
//
//	type promCollector struct {
//		addLatency prometheus.Histogram
//		addErrors  prometheus.Counter
//	}
//
//	func (c *promCollector) RecordAdd(d time.Duration, err error) {
//		c.addLatency.Observe(d.Seconds())
//		if err != nil {
//			c.addErrors.Inc()
//		}
//	}
type MetricsCollector interface {
	// RecordAdd is called after every Add with its duration and outcome.
	RecordAdd(duration time.Duration, err error)

	// RecordBatchAdd is called after every AddBatch with the batch size.
	RecordBatchAdd(count int, duration time.Duration, err error)

	// RecordSearch is called after every Search with the requested k.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordDelete is called after every Delete.
	RecordDelete(duration time.Duration, err error)

	// RecordPurge is called after every foreground PurgeExpired with the
	// number of entries removed.
	RecordPurge(purged int, duration time.Duration, err error)

	// RecordReset is called after every Reset.
	RecordReset(duration time.Duration, err error)
}

// NoopMetricsCollector discards every signal. It is the default collector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchAdd(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)        {}
func (NoopMetricsCollector) RecordPurge(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordReset(time.Duration, error)         {}

// BasicMetricsCollector counts operations and accumulates latencies with
// atomics. It suits tests and quick diagnostics; production setups usually
// adapt their own metrics system instead.
type BasicMetricsCollector struct {
	AddCount  atomic.Int64
	AddErrors atomic.Int64
	AddNanos  atomic.Int64

	BatchAddCount   atomic.Int64
	BatchAddVectors atomic.Int64
	BatchAddErrors  atomic.Int64
	BatchAddNanos   atomic.Int64

	SearchCount  atomic.Int64
	SearchErrors atomic.Int64
	SearchNanos  atomic.Int64

	DeleteCount  atomic.Int64
	DeleteErrors atomic.Int64
	DeleteNanos  atomic.Int64

	PurgeCount   atomic.Int64
	PurgedTotal  atomic.Int64
	PurgeErrors  atomic.Int64
	PurgeNanos   atomic.Int64

	ResetCount  atomic.Int64
	ResetErrors atomic.Int64
	ResetNanos  atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (c *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	c.AddCount.Add(1)
	c.AddNanos.Add(int64(duration))
	if err != nil {
		c.AddErrors.Add(1)
	}
}

// RecordBatchAdd implements MetricsCollector.
func (c *BasicMetricsCollector) RecordBatchAdd(count int, duration time.Duration, err error) {
	c.BatchAddCount.Add(1)
	c.BatchAddVectors.Add(int64(count))
	c.BatchAddNanos.Add(int64(duration))
	if err != nil {
		c.BatchAddErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (c *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	c.SearchCount.Add(1)
	c.SearchNanos.Add(int64(duration))
	if err != nil {
		c.SearchErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (c *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	c.DeleteCount.Add(1)
	c.DeleteNanos.Add(int64(duration))
	if err != nil {
		c.DeleteErrors.Add(1)
	}
}

// RecordPurge implements MetricsCollector.
func (c *BasicMetricsCollector) RecordPurge(purged int, duration time.Duration, err error) {
	c.PurgeCount.Add(1)
	c.PurgedTotal.Add(int64(purged))
	c.PurgeNanos.Add(int64(duration))
	if err != nil {
		c.PurgeErrors.Add(1)
	}
}

// RecordReset implements MetricsCollector.
func (c *BasicMetricsCollector) RecordReset(duration time.Duration, err error) {
	c.ResetCount.Add(1)
	c.ResetNanos.Add(int64(duration))
	if err != nil {
		c.ResetErrors.Add(1)
	}
}

// BasicMetricsStats is a point-in-time snapshot of a BasicMetricsCollector.
type BasicMetricsStats struct {
	AddCount  int64
	AddErrors int64
	AddAvg    time.Duration

	BatchAddCount   int64
	BatchAddVectors int64
	BatchAddErrors  int64
	BatchAddAvg     time.Duration

	SearchCount  int64
	SearchErrors int64
	SearchAvg    time.Duration

	DeleteCount  int64
	DeleteErrors int64
	DeleteAvg    time.Duration

	PurgeCount  int64
	PurgedTotal int64
	PurgeErrors int64
	PurgeAvg    time.Duration

	ResetCount  int64
	ResetErrors int64
	ResetAvg    time.Duration
}

// GetStats returns a snapshot of the collected counters. Counters keep
// advancing while the snapshot is taken, so totals across fields may be
// off by in-flight operations.
func (c *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:  c.AddCount.Load(),
		AddErrors: c.AddErrors.Load(),
		AddAvg:    avgDuration(c.AddNanos.Load(), c.AddCount.Load()),

		BatchAddCount:   c.BatchAddCount.Load(),
		BatchAddVectors: c.BatchAddVectors.Load(),
		BatchAddErrors:  c.BatchAddErrors.Load(),
		BatchAddAvg:     avgDuration(c.BatchAddNanos.Load(), c.BatchAddCount.Load()),

		SearchCount:  c.SearchCount.Load(),
		SearchErrors: c.SearchErrors.Load(),
		SearchAvg:    avgDuration(c.SearchNanos.Load(), c.SearchCount.Load()),

		DeleteCount:  c.DeleteCount.Load(),
		DeleteErrors: c.DeleteErrors.Load(),
		DeleteAvg:    avgDuration(c.DeleteNanos.Load(), c.DeleteCount.Load()),

		PurgeCount:  c.PurgeCount.Load(),
		PurgedTotal: c.PurgedTotal.Load(),
		PurgeErrors: c.PurgeErrors.Load(),
		PurgeAvg:    avgDuration(c.PurgeNanos.Load(), c.PurgeCount.Load()),

		ResetCount:  c.ResetCount.Load(),
		ResetErrors: c.ResetErrors.Load(),
		ResetAvg:    avgDuration(c.ResetNanos.Load(), c.ResetCount.Load()),
	}
}

func avgDuration(nanos, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(nanos / count)
}
