package vectab

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    addCounter      prometheus.Counter
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAdd(rows int, duration time.Duration, err error) {
//	    p.addCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordCreateTable is called after each table creation.
	// rows is the number of rows written, duration is the total time taken,
	// err is nil if successful.
	RecordCreateTable(rows int, duration time.Duration, err error)

	// RecordAdd is called after each add operation.
	// rows is the total row count of the resulting table version (the
	// value Add returns), duration is the total time taken, err is nil if
	// successful.
	RecordAdd(rows int, duration time.Duration, err error)

	// RecordSearch is called after each search execution.
	// k is the number of neighbors requested, duration is the time taken,
	// err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(deleted int, duration time.Duration, err error)

	// RecordDropTable is called after each table drop.
	RecordDropTable(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreateTable(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordAdd(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordDelete(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordDropTable(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CreateTableCount  atomic.Int64
	CreateTableErrors atomic.Int64
	AddCount          atomic.Int64
	AddErrors         atomic.Int64
	AddRows           atomic.Int64
	AddTotalNanos     atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchTotalNanos  atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	DeletedRows       atomic.Int64
	DropTableCount    atomic.Int64
	DropTableErrors   atomic.Int64
}

// RecordCreateTable implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreateTable(rows int, duration time.Duration, err error) {
	b.CreateTableCount.Add(1)
	if err != nil {
		b.CreateTableErrors.Add(1)
	}
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(rows int, duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddRows.Add(int64(rows))
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(deleted int, duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeletedRows.Add(int64(deleted))
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordDropTable implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDropTable(duration time.Duration, err error) {
	b.DropTableCount.Add(1)
	if err != nil {
		b.DropTableErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CreateTableCount:  b.CreateTableCount.Load(),
		CreateTableErrors: b.CreateTableErrors.Load(),
		AddCount:          b.AddCount.Load(),
		AddErrors:         b.AddErrors.Load(),
		AddRows:           b.AddRows.Load(),
		AddAvgNanos:       b.getAvgAddNanos(),
		SearchCount:       b.SearchCount.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchAvgNanos:    b.getAvgSearchNanos(),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		DeletedRows:       b.DeletedRows.Load(),
		DropTableCount:    b.DropTableCount.Load(),
		DropTableErrors:   b.DropTableErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAddNanos() int64 {
	count := b.AddCount.Load()
	if count == 0 {
		return 0
	}
	return b.AddTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CreateTableCount  int64
	CreateTableErrors int64
	AddCount          int64
	AddErrors         int64
	AddRows           int64
	AddAvgNanos       int64
	SearchCount       int64
	SearchErrors      int64
	SearchAvgNanos    int64
	DeleteCount       int64
	DeleteErrors      int64
	DeletedRows       int64
	DropTableCount    int64
	DropTableErrors   int64
}
