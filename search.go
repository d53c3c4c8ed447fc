// Package vectab provides an embedded, table-oriented embedding store.
//
// This file implements a fluent query API over tables.
package vectab

import (
	"context"
	"time"

	"github.com/hupe1980/vectab/dataset"
)

// SearchResult is a single query hit: the matching row and its
// metric-dependent distance.
type SearchResult = dataset.Result

// Metric aliases the engine's distance metric selector.
type Metric = dataset.Metric

// Re-exported metrics so callers don't need to import the dataset
// package for common queries.
const (
	MetricL2     = dataset.MetricL2
	MetricCosine = dataset.MetricCosine
	MetricDot    = dataset.MetricDot
)

// QueryBuilder is a fluent builder for similarity queries. It holds the
// normalized query vector and delegates execution to the table's dataset
// handle.
//
// Example:
//
//	results, err := tbl.MustSearch([]float32{0.1, 0.2}).
//	    Limit(10).
//	    Metric(vectab.MetricCosine).
//	    Execute(ctx)
type QueryBuilder struct {
	table  *Table
	vector []float32
	k      int
	metric Metric
}

// Limit sets the number of nearest neighbors to return.
func (qb *QueryBuilder) Limit(k int) *QueryBuilder {
	qb.k = k
	return qb
}

// Metric sets the distance metric. Defaults to MetricL2.
func (qb *QueryBuilder) Metric(m Metric) *QueryBuilder {
	qb.metric = m
	return qb
}

// Vector returns the normalized query vector.
func (qb *QueryBuilder) Vector() []float32 {
	return qb.vector
}

// Execute runs the query and returns up to the configured limit of
// results, ordered by ascending distance.
func (qb *QueryBuilder) Execute(ctx context.Context) ([]SearchResult, error) {
	start := time.Now()
	results, err := qb.execute(ctx)
	qb.table.conn.opts.metricsCollector.RecordSearch(qb.k, time.Since(start), err)
	qb.table.conn.opts.logger.LogSearch(ctx, qb.table.name, qb.k, len(results), err)
	return results, err
}

func (qb *QueryBuilder) execute(ctx context.Context) ([]SearchResult, error) {
	if err := qb.table.bind(ctx); err != nil {
		return nil, err
	}
	return qb.table.handle.Scan(ctx, qb.vector, qb.k, qb.metric)
}

// First returns only the nearest result, or found=false when the table
// is empty.
func (qb *QueryBuilder) First(ctx context.Context) (SearchResult, bool, error) {
	qb.k = 1
	results, err := qb.Execute(ctx)
	if err != nil {
		return SearchResult{}, false, err
	}
	if len(results) == 0 {
		return SearchResult{}, false, nil
	}
	return results[0], true, nil
}
