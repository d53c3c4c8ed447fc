package embed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hupe1980/vectab/columnar"
)

// charCount embeds a text as a one-dimensional vector of its length.
func charCount(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, s := range texts {
		out[i] = []float32{float32(len(s))}
	}
	return out, nil
}

func TestEmbedKeepsOrder(t *testing.T) {
	w := New(charCount, func(o *Options) {
		o.BatchSize = 2
		o.Concurrency = 3
	})

	vectors, err := w.Embed(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1}, {2}, {3}, {4}, {5}}, vectors)
}

func TestEmbedEmpty(t *testing.T) {
	w := New(charCount)
	vectors, err := w.Embed(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, vectors)
}

func TestEmbedRetries(t *testing.T) {
	var calls atomic.Int64
	flaky := func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) <= 2 {
			return nil, errors.New("rate limited")
		}
		return charCount(ctx, texts)
	}

	w := New(flaky, func(o *Options) {
		o.MaxRetries = 3
		o.BaseDelay = time.Millisecond
		o.MaxDelay = 2 * time.Millisecond
	})

	vectors, err := w.Embed(context.Background(), []string{"abc"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{3}}, vectors)
	require.Equal(t, int64(3), calls.Load())
}

func TestEmbedRetriesExhausted(t *testing.T) {
	broken := func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("permanently down")
	}

	w := New(broken, func(o *Options) {
		o.MaxRetries = 1
		o.BaseDelay = time.Millisecond
	})

	_, err := w.Embed(context.Background(), []string{"abc"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "2 attempts failed")
	require.Contains(t, err.Error(), "permanently down")
}

func TestEmbedRateLimited(t *testing.T) {
	w := New(charCount, func(o *Options) {
		o.BatchSize = 1
		o.Concurrency = 1
		o.Limiter = rate.NewLimiter(rate.Every(time.Millisecond), 1)
	})

	start := time.Now()
	_, err := w.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	short := func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}

	w := New(short, func(o *Options) {
		o.MaxRetries = 0
	})
	_, err := w.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 vectors for 2 texts")
}

func TestWithEmbeddings(t *testing.T) {
	tbl, err := columnar.FromSlices(
		[]string{"id", "text"},
		[]any{[]int64{1, 2}, []string{"hi", "hello"}},
	)
	require.NoError(t, err)

	w := New(charCount)
	out, err := WithEmbeddings(context.Background(), w, tbl, "text")
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, []string{"id", "text", "vector"}, out.Schema().Names())

	col, _ := out.ColumnByName("vector")
	require.True(t, col.Type().Equal(columnar.FixedSizeListOf(columnar.Float32, 1)))
	require.Equal(t, []float32{2}, col.Value(0))

	// Source table untouched.
	require.Equal(t, 2, tbl.NumColumns())

	_, err = WithEmbeddings(context.Background(), w, tbl, "missing")
	require.Error(t, err)

	_, err = WithEmbeddings(context.Background(), w, tbl, "id")
	require.Error(t, err)
	require.Contains(t, err.Error(), "want string")
}
