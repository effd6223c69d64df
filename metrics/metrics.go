// Package metrics collects operational counters for conversions, engine
// queries and recall results.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector defines an interface for collecting operational metrics.
// Implementations must be safe for concurrent use.
type Collector interface {
	// RecordConversion is called after each corpus conversion.
	RecordConversion(unit string, converted, skipped int, duration time.Duration)

	// RecordQuery is called after each query against the engine under test.
	// kind distinguishes approximate, exact and searcher-side recall queries.
	RecordQuery(kind string, duration time.Duration, err error)

	// RecordRecall is called with each reported recall percentage.
	RecordRecall(label string, percent float64)
}

// NoopCollector is a no-op implementation of Collector.
type NoopCollector struct{}

func (NoopCollector) RecordConversion(string, int, int, time.Duration) {}
func (NoopCollector) RecordQuery(string, time.Duration, error)         {}
func (NoopCollector) RecordRecall(string, float64)                     {}

// BasicCollector provides simple in-memory metrics collection.
type BasicCollector struct {
	Conversions      atomic.Int64
	ConvertedRecords atomic.Int64
	SkippedRecords   atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64

	mu      sync.Mutex
	recalls map[string]float64
}

// RecordConversion implements Collector.
func (b *BasicCollector) RecordConversion(_ string, converted, skipped int, _ time.Duration) {
	b.Conversions.Add(1)
	b.ConvertedRecords.Add(int64(converted))
	b.SkippedRecords.Add(int64(skipped))
}

// RecordQuery implements Collector.
func (b *BasicCollector) RecordQuery(_ string, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordRecall implements Collector. The last value per label wins.
func (b *BasicCollector) RecordRecall(label string, percent float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.recalls == nil {
		b.recalls = make(map[string]float64)
	}
	b.recalls[label] = percent
}

// GetStats returns a snapshot of current metrics.
func (b *BasicCollector) GetStats() BasicStats {
	b.mu.Lock()
	recalls := make(map[string]float64, len(b.recalls))
	for k, v := range b.recalls {
		recalls[k] = v
	}
	b.mu.Unlock()

	stats := BasicStats{
		Conversions:      b.Conversions.Load(),
		ConvertedRecords: b.ConvertedRecords.Load(),
		SkippedRecords:   b.SkippedRecords.Load(),
		QueryCount:       b.QueryCount.Load(),
		QueryErrors:      b.QueryErrors.Load(),
		Recalls:          recalls,
	}
	if stats.QueryCount > 0 {
		stats.QueryAvgNanos = b.QueryTotalNanos.Load() / stats.QueryCount
	}
	return stats
}

// BasicStats is a snapshot of BasicCollector state.
type BasicStats struct {
	Conversions      int64
	ConvertedRecords int64
	SkippedRecords   int64
	QueryCount       int64
	QueryErrors      int64
	QueryAvgNanos    int64
	Recalls          map[string]float64
}
