package vectab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectab/blobstore"
	"github.com/hupe1980/vectab/columnar"
	"github.com/hupe1980/vectab/dataset"
)

func memConnect(t *testing.T, optFns ...Option) *Connection {
	t.Helper()
	conn, err := Connect("db", append([]Option{WithStore(blobstore.NewMemoryStore())}, optFns...)...)
	require.NoError(t, err)
	return conn
}

func TestCreateTableAndAdd(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)
	schema := vectorSchema(t, 2)

	tbl, err := conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(1), "vector": []float32{0.1, 0.2}},
		{"id": int64(2), "vector": []float32{0.3, 0.4}},
	}, schema)
	require.NoError(t, err)
	require.Equal(t, "t1", tbl.Name())
	require.Equal(t, "db/t1.vectab", tbl.URI())

	got, err := tbl.Schema(ctx)
	require.NoError(t, err)
	require.True(t, got.Equal(schema))

	field, ok := got.Field("vector")
	require.True(t, ok)
	require.Equal(t, 2, field.Type.Width())

	count, err := tbl.Add(ctx, Rows{
		{"id": int64(3), "vector": []float32{0.5, 0.6}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// Creating again without overwrite fails via the engine.
	_, err = conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(1), "vector": []float32{0, 0}},
	}, schema)
	require.ErrorIs(t, err, dataset.ErrDatasetExists)
}

func TestAddOverwrite(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)

	rows := make(Rows, 10)
	for i := range rows {
		rows[i] = columnar.Row{"id": int64(i), "vector": []float32{float32(i), 0}}
	}
	tbl, err := conn.CreateTable(ctx, "t1", rows, nil)
	require.NoError(t, err)

	five := make(Rows, 5)
	for i := range five {
		five[i] = columnar.Row{"id": int64(i), "vector": []float32{0, float32(i)}}
	}
	count, err := tbl.Add(ctx, five, func(o *AddOptions) {
		o.Mode = dataset.ModeOverwrite
	})
	require.NoError(t, err)
	require.Equal(t, 5, count)
}

func TestTableStaysPinnedAfterAdd(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)

	tbl, err := conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(1), "vector": []float32{0, 0}},
	}, nil)
	require.NoError(t, err)

	_, err = tbl.Add(ctx, Rows{
		{"id": int64(2), "vector": []float32{1, 1}},
	})
	require.NoError(t, err)

	// The bound handle still serves the pre-add version.
	count, err := tbl.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	reopened, err := conn.OpenTable(ctx, "t1")
	require.NoError(t, err)
	count, err = reopened.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)

	tbl, err := conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(1), "vector": []float32{0, 0}},
		{"id": int64(2), "vector": []float32{1, 1}},
		{"id": int64(3), "vector": []float32{5, 5}},
	}, nil)
	require.NoError(t, err)

	results, err := tbl.MustSearch([]float32{0.9, 0.9}).Limit(2).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(2), results[0].Row["id"])
	require.Equal(t, int64(1), results[1].Row["id"])

	best, found, err := tbl.MustSearch([]float32{5, 5}).First(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(3), best.Row["id"])

	// Plain and typed numeric queries normalize identically.
	qb1, err := tbl.Search([]float64{0.1, 0.2})
	require.NoError(t, err)
	qb2, err := tbl.Search([]float32{0.1, 0.2})
	require.NoError(t, err)
	require.Equal(t, qb2.Vector(), qb1.Vector())

	var queryErr *UnsupportedQueryTypeError
	_, err = tbl.Search("query text")
	require.ErrorAs(t, err, &queryErr)
}

func TestSearchWithStringListColumn(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)

	tbl, err := conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(1), "tags": []string{"a", "b"}, "vector": []float32{0, 0}},
		{"id": int64(2), "tags": []string{"c"}, "vector": []float32{1, 1}},
	}, nil)
	require.NoError(t, err)

	// Every written column must read back; a tags column may not poison
	// the fragment.
	results, err := tbl.MustSearch([]float32{0, 0}).Limit(1).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int64(1), results[0].Row["id"])
	require.Equal(t, []string{"a", "b"}, results[0].Row["tags"])
}

func TestTableDelete(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)

	tbl, err := conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(1), "vector": []float32{0, 0}},
		{"id": int64(2), "vector": []float32{1, 1}},
	}, nil)
	require.NoError(t, err)

	deleted, err := tbl.Delete(ctx, func(row columnar.Row) bool {
		return row["id"].(int64) == 1
	})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	reopened, err := conn.OpenTable(ctx, "t1")
	require.NoError(t, err)
	count, err := reopened.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestConnectionLifecycle(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)

	_, err := conn.OpenTable(ctx, "missing")
	require.ErrorIs(t, err, dataset.ErrDatasetNotFound)

	_, err = conn.CreateTable(ctx, "b", Rows{{"id": int64(1), "vector": []float32{0, 0}}}, nil)
	require.NoError(t, err)
	_, err = conn.CreateTable(ctx, "a", Rows{{"id": int64(1), "vector": []float32{0, 0}}}, nil)
	require.NoError(t, err)

	names, err := conn.TableNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, conn.DropTable(ctx, "a"))

	names, err = conn.TableNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, names)

	require.NoError(t, conn.DropDB(ctx))

	names, err = conn.TableNames(ctx)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestCreateTableModes(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)

	_, err := conn.CreateTable(ctx, "t1", Rows{{"id": int64(1), "vector": []float32{0, 0}}}, nil)
	require.NoError(t, err)

	// exist_ok opens the existing table and ignores the new data.
	tbl, err := conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(9), "vector": []float32{9, 9}},
	}, nil, func(o *CreateTableOptions) {
		o.Mode = CreateModeExistOK
	})
	require.NoError(t, err)
	count, err := tbl.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// overwrite replaces the table contents.
	tbl, err = conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(7), "vector": []float32{7, 7}},
		{"id": int64(8), "vector": []float32{8, 8}},
	}, nil, func(o *CreateTableOptions) {
		o.Mode = CreateModeOverwrite
	})
	require.NoError(t, err)
	count, err = tbl.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestCreateEmptyTable(t *testing.T) {
	ctx := context.Background()
	conn := memConnect(t)
	schema := vectorSchema(t, 4)

	tbl, err := conn.CreateEmptyTable(ctx, "empty", schema)
	require.NoError(t, err)

	count, err := tbl.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	got, err := tbl.Schema(ctx)
	require.NoError(t, err)
	require.True(t, got.Equal(schema))

	n, err := tbl.Add(ctx, Rows{
		{"id": int64(1), "vector": []float32{1, 2, 3, 4}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestConnectLocal(t *testing.T) {
	ctx := context.Background()
	conn, err := Connect(t.TempDir())
	require.NoError(t, err)

	tbl, err := conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(1), "vector": []float32{0.5, 0.5}},
	}, nil)
	require.NoError(t, err)

	results, err := tbl.MustSearch([]float32{0.5, 0.5}).Limit(1).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, float32(0), results[0].Distance)
}

func TestMetricsCollected(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	conn := memConnect(t, WithMetricsCollector(metrics))

	tbl, err := conn.CreateTable(ctx, "t1", Rows{
		{"id": int64(1), "vector": []float32{0, 0}},
	}, nil)
	require.NoError(t, err)

	_, err = tbl.Add(ctx, Rows{{"id": int64(2), "vector": []float32{1, 1}}})
	require.NoError(t, err)

	_, err = tbl.MustSearch([]float32{0, 0}).Execute(ctx)
	require.NoError(t, err)

	stats := metrics.GetStats()
	require.Equal(t, int64(1), stats.CreateTableCount)
	require.Equal(t, int64(1), stats.AddCount)
	require.Equal(t, int64(2), stats.AddRows)
	require.Equal(t, int64(1), stats.SearchCount)
}
