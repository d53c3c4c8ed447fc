// Package embed turns text columns into embedding columns. It wraps a
// caller-supplied embedding function with batching, rate limiting and
// retry so that remote embedding APIs can be driven safely during bulk
// ingestion.
package embed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/vectab/columnar"
	"github.com/hupe1980/vectab/dataset"
)

// Func computes embeddings for a batch of texts. It must return exactly
// one vector per input text.
type Func func(ctx context.Context, texts []string) ([][]float32, error)

// Options configures a Wrapper.
type Options struct {
	// BatchSize is the number of texts per call to the wrapped Func.
	BatchSize int

	// Concurrency bounds the number of batches in flight.
	Concurrency int

	// MaxRetries is the number of retry attempts per batch after the
	// first failure.
	MaxRetries int

	// BaseDelay is the initial retry backoff; it doubles per attempt with
	// jitter, capped at MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Limiter, when set, is awaited before each batch call. Use this to
	// stay under a provider's requests-per-second quota.
	Limiter *rate.Limiter
}

// Wrapper executes an embedding Func in rate-limited, retried batches.
type Wrapper struct {
	fn   Func
	opts Options
}

// New wraps an embedding function.
func New(fn Func, optFns ...func(*Options)) *Wrapper {
	opts := Options{
		BatchSize:   32,
		Concurrency: 4,
		MaxRetries:  6,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
	}
	for _, optFn := range optFns {
		if optFn != nil {
			optFn(&opts)
		}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Wrapper{fn: fn, opts: opts}
}

// Embed computes one vector per text. Batches run concurrently up to the
// configured limit; results keep input order.
func (w *Wrapper) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)

	for start := 0; start < len(texts); start += w.opts.BatchSize {
		end := start + w.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vectors, err := w.embedBatch(ctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vectors) != end-start {
				return fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), end-start)
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Wrapper) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	delay := w.opts.BaseDelay
	var lastErr error

	for attempt := 0; attempt <= w.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, jitter(delay)); err != nil {
				return nil, err
			}
			delay *= 2
			if delay > w.opts.MaxDelay {
				delay = w.opts.MaxDelay
			}
		}
		if w.opts.Limiter != nil {
			if err := w.opts.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		vectors, err := w.fn(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("embed: %d attempts failed: %w", w.opts.MaxRetries+1, lastErr)
}

// jitter spreads retries over [delay/2, delay) to avoid thundering herds.
func jitter(delay time.Duration) time.Duration {
	if delay <= 1 {
		return delay
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithEmbeddings appends the canonical "vector" column to tbl, computed
// from the named string column. The source table is not modified.
func WithEmbeddings(ctx context.Context, w *Wrapper, tbl *columnar.Table, sourceColumn string) (*columnar.Table, error) {
	col, _ := tbl.ColumnByName(sourceColumn)
	if col == nil {
		return nil, fmt.Errorf("embed: table has no column %q", sourceColumn)
	}
	texts, ok := col.Values().([]string)
	if !ok {
		return nil, fmt.Errorf("embed: column %q is %s, want string", sourceColumn, col.Type())
	}

	vectors, err := w.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	width := 0
	var flat []float32
	for i, vec := range vectors {
		if i == 0 {
			width = len(vec)
		} else if len(vec) != width {
			return nil, fmt.Errorf("embed: vector %d has %d values, want %d", i, len(vec), width)
		}
		flat = append(flat, vec...)
	}
	vecCol, err := columnar.NewFixedSizeListColumn(dataset.VectorColumnName, width, flat)
	if err != nil {
		return nil, err
	}
	return tbl.AppendColumn(vecCol)
}
