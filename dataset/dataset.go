// Package dataset defines the storage engine boundary consumed by the
// table layer, together with a reference implementation that persists
// versioned datasets as manifests plus immutable fragments in a
// blobstore.Store.
//
// The table layer treats this package as a black box: it hands over a
// sanitized canonical table and a dataset URI, and gets back a handle
// exposing schema, row count and similarity scans.
package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/vectab/columnar"
)

// VectorColumnName is the canonical name of the embedding column. Tables
// written without an explicit schema are normalized against this name,
// and scans resolve the query column by it.
const VectorColumnName = "vector"

var (
	// ErrDatasetExists is returned by create-mode writes when the target
	// URI already holds a dataset.
	ErrDatasetExists = errors.New("dataset already exists")

	// ErrDatasetNotFound is returned when opening or appending to a URI
	// that holds no dataset.
	ErrDatasetNotFound = errors.New("dataset not found")
)

// WriteMode controls how a write interacts with existing data.
type WriteMode int

const (
	// ModeCreate writes a new dataset and fails if one already exists.
	ModeCreate WriteMode = iota
	// ModeAppend adds rows to an existing dataset.
	ModeAppend
	// ModeOverwrite replaces all rows, creating the dataset if absent.
	ModeOverwrite
)

func (m WriteMode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeAppend:
		return "append"
	case ModeOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Metric selects the distance measure used by scans.
type Metric int

const (
	MetricL2 Metric = iota
	MetricCosine
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "l2"
	case MetricCosine:
		return "cosine"
	case MetricDot:
		return "dot"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Result is a single scan hit. Distance is metric-dependent but always
// sorts ascending: for MetricDot the negated dot product is reported so
// that smaller remains better.
type Result struct {
	Row      columnar.Row
	Distance float32
}

// DimensionMismatchError indicates a query/column dimensionality mismatch.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Engine persists canonical tables and serves handles to stored datasets.
type Engine interface {
	// Write persists tbl at uri under the given mode and returns a handle
	// to the resulting dataset version.
	Write(ctx context.Context, tbl *columnar.Table, uri string, mode WriteMode) (Handle, error)

	// Open returns a handle to the latest version of the dataset at uri.
	Open(ctx context.Context, uri string) (Handle, error)

	// Exists reports whether a dataset is present at uri.
	Exists(ctx context.Context, uri string) (bool, error)

	// Drop removes the dataset at uri, including all versions.
	Drop(ctx context.Context, uri string) error

	// List returns the dataset URIs under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Handle is a read view of one committed dataset version. It never sees
// writes committed after it was obtained; callers needing freshness must
// re-open.
type Handle interface {
	// URI returns the dataset location.
	URI() string

	// Version returns the committed version this handle is pinned to.
	Version() uint64

	// Schema returns the dataset schema.
	Schema() columnar.Schema

	// CountRows returns the number of live rows.
	CountRows(ctx context.Context) (int, error)

	// Scan performs an exact nearest-neighbor scan over the embedding
	// column and returns up to k results ordered by ascending distance.
	Scan(ctx context.Context, query []float32, k int, metric Metric) ([]Result, error)

	// Delete tombstones every live row matching pred and commits a new
	// version. It returns the number of rows deleted. The handle itself
	// stays pinned to its original version.
	Delete(ctx context.Context, pred func(columnar.Row) bool) (int, error)
}
