package vectab

import (
	"context"
	"time"

	"github.com/hupe1980/vectab/columnar"
	"github.com/hupe1980/vectab/dataset"
)

// AddOptions configures an Add call.
type AddOptions struct {
	// Mode is dataset.ModeAppend (the default) or dataset.ModeOverwrite.
	Mode dataset.WriteMode
}

// Table is a handle to one table in the database. It carries identity
// (name, URI) and binds lazily: the underlying dataset handle is opened
// on first use and cached for the Table's lifetime.
//
// The cached binding is pinned to the dataset version current at bind
// time and is never refreshed, not even by this Table's own writes.
// Reads through a long-lived Table can therefore serve stale schema and
// row counts; re-open the table via Connection.OpenTable when freshness
// matters.
type Table struct {
	conn   *Connection
	name   string
	uri    string
	handle dataset.Handle
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// URI returns the table's dataset location.
func (t *Table) URI() string { return t.uri }

// bind opens the underlying dataset handle. Idempotent: once bound, the
// cached handle is reused for the Table's lifetime.
func (t *Table) bind(ctx context.Context) error {
	if t.handle != nil {
		return nil
	}
	handle, err := t.conn.engine.Open(ctx, t.uri)
	if err != nil {
		return err
	}
	t.handle = handle
	return nil
}

// Schema returns the table schema, binding the handle if needed.
func (t *Table) Schema(ctx context.Context) (columnar.Schema, error) {
	if err := t.bind(ctx); err != nil {
		return nil, err
	}
	return t.handle.Schema(), nil
}

// Version returns the dataset version the table is bound to, binding the
// handle if needed.
func (t *Table) Version(ctx context.Context) (uint64, error) {
	if err := t.bind(ctx); err != nil {
		return 0, err
	}
	return t.handle.Version(), nil
}

// CountRows returns the number of live rows in the bound version.
func (t *Table) CountRows(ctx context.Context) (int, error) {
	if err := t.bind(ctx); err != nil {
		return 0, err
	}
	return t.handle.CountRows(ctx)
}

// Add sanitizes data against the table's schema and writes it. The
// default mode appends; dataset.ModeOverwrite replaces all rows. It
// returns the total row count of the resulting version.
//
// The Table's own binding is not advanced by the write (see the type
// documentation on staleness).
func (t *Table) Add(ctx context.Context, data Data, optFns ...func(*AddOptions)) (int, error) {
	start := time.Now()
	count, err := t.add(ctx, data, optFns...)
	t.conn.opts.metricsCollector.RecordAdd(count, time.Since(start), err)
	t.conn.opts.logger.LogAdd(ctx, t.name, addMode(optFns).String(), count, err)
	return count, err
}

func (t *Table) add(ctx context.Context, data Data, optFns ...func(*AddOptions)) (int, error) {
	mode := addMode(optFns)

	if err := t.bind(ctx); err != nil {
		return 0, err
	}
	sanitized, err := sanitizeData(data, t.handle.Schema(), t.conn.opts.strictVectors)
	if err != nil {
		return 0, err
	}

	handle, err := t.conn.engine.Write(ctx, sanitized, t.uri, mode)
	if err != nil {
		return 0, err
	}
	return handle.CountRows(ctx)
}

func addMode(optFns []func(*AddOptions)) dataset.WriteMode {
	opts := AddOptions{Mode: dataset.ModeAppend}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	return opts.Mode
}

// Delete removes every live row matching pred, committing a new dataset
// version, and returns the number of rows deleted. It always operates on
// the latest version, regardless of what this Table is bound to.
func (t *Table) Delete(ctx context.Context, pred func(columnar.Row) bool) (int, error) {
	start := time.Now()
	deleted, err := t.delete(ctx, pred)
	t.conn.opts.metricsCollector.RecordDelete(deleted, time.Since(start), err)
	t.conn.opts.logger.LogDelete(ctx, t.name, deleted, err)
	return deleted, err
}

func (t *Table) delete(ctx context.Context, pred func(columnar.Row) bool) (int, error) {
	handle, err := t.conn.engine.Open(ctx, t.uri)
	if err != nil {
		return 0, err
	}
	return handle.Delete(ctx, pred)
}

// Search creates a query builder for the given query vector. The query
// may be []float32, []float64, []int, []int64 or a []any of numbers; it
// is normalized to []float32. Any other shape fails with an
// UnsupportedQueryTypeError. Constructing the builder never touches
// stored data.
func (t *Table) Search(query any) (*QueryBuilder, error) {
	vector, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	return &QueryBuilder{
		table:  t,
		vector: vector,
		k:      10, // Default k
		metric: dataset.MetricL2,
	}, nil
}

// MustSearch is Search, panicking on an unsupported query shape. Use this
// only when the query type is statically known to be valid.
func (t *Table) MustSearch(query any) *QueryBuilder {
	qb, err := t.Search(query)
	if err != nil {
		panic(err)
	}
	return qb
}

func normalizeQuery(query any) ([]float32, error) {
	switch q := query.(type) {
	case []float32:
		return q, nil
	case []float64:
		out := make([]float32, len(q))
		for i, x := range q {
			out[i] = float32(x)
		}
		return out, nil
	case []int:
		out := make([]float32, len(q))
		for i, x := range q {
			out[i] = float32(x)
		}
		return out, nil
	case []int64:
		out := make([]float32, len(q))
		for i, x := range q {
			out[i] = float32(x)
		}
		return out, nil
	case []any:
		out := make([]float32, len(q))
		for i, x := range q {
			switch v := x.(type) {
			case float32:
				out[i] = v
			case float64:
				out[i] = float32(v)
			case int:
				out[i] = float32(v)
			case int64:
				out[i] = float32(v)
			default:
				return nil, &UnsupportedQueryTypeError{Value: query}
			}
		}
		return out, nil
	default:
		return nil, &UnsupportedQueryTypeError{Value: query}
	}
}
