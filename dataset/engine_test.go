package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectab/blobstore"
	"github.com/hupe1980/vectab/columnar"
)

func testTable(t *testing.T, ids []int64, vectors []float32) *columnar.Table {
	t.Helper()
	idCol, err := columnar.NewColumn("id", ids)
	require.NoError(t, err)
	vecCol, err := columnar.NewFixedSizeListColumn(VectorColumnName, 2, vectors)
	require.NoError(t, err)
	tbl, err := columnar.NewTable(idCol, vecCol)
	require.NoError(t, err)
	return tbl
}

func TestStoreEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	engine := NewStoreEngine(blobstore.NewMemoryStore())
	uri := "db/items.vectab"

	exists, err := engine.Exists(ctx, uri)
	require.NoError(t, err)
	require.False(t, exists)

	_, err = engine.Open(ctx, uri)
	require.ErrorIs(t, err, ErrDatasetNotFound)

	tbl := testTable(t, []int64{1, 2}, []float32{0, 0, 1, 1})
	handle, err := engine.Write(ctx, tbl, uri, ModeCreate)
	require.NoError(t, err)
	require.Equal(t, uri, handle.URI())
	require.Equal(t, uint64(1), handle.Version())
	require.True(t, tbl.Schema().Equal(handle.Schema()))

	count, err := handle.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	exists, err = engine.Exists(ctx, uri)
	require.NoError(t, err)
	require.True(t, exists)

	// A second create on the same URI must fail.
	_, err = engine.Write(ctx, tbl, uri, ModeCreate)
	require.ErrorIs(t, err, ErrDatasetExists)

	more := testTable(t, []int64{3}, []float32{2, 2})
	handle, err = engine.Write(ctx, more, uri, ModeAppend)
	require.NoError(t, err)
	require.Equal(t, uint64(2), handle.Version())

	count, err = handle.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// Overwrite replaces all rows.
	fresh := testTable(t, []int64{9}, []float32{5, 5})
	handle, err = engine.Write(ctx, fresh, uri, ModeOverwrite)
	require.NoError(t, err)
	require.Equal(t, uint64(3), handle.Version())

	count, err = handle.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	uris, err := engine.List(ctx, "db/")
	require.NoError(t, err)
	require.Equal(t, []string{uri}, uris)

	require.NoError(t, engine.Drop(ctx, uri))

	exists, err = engine.Exists(ctx, uri)
	require.NoError(t, err)
	require.False(t, exists)

	uris, err = engine.List(ctx, "db/")
	require.NoError(t, err)
	require.Empty(t, uris)
}

func TestStoreEngineAppendChecks(t *testing.T) {
	ctx := context.Background()
	engine := NewStoreEngine(blobstore.NewMemoryStore())
	uri := "db/items.vectab"

	tbl := testTable(t, []int64{1}, []float32{0, 0})
	_, err := engine.Write(ctx, tbl, uri, ModeAppend)
	require.ErrorIs(t, err, ErrDatasetNotFound)

	_, err = engine.Write(ctx, tbl, uri, ModeCreate)
	require.NoError(t, err)

	// Appending with a different schema must fail.
	other, err := columnar.FromSlices([]string{"name"}, []any{[]string{"a"}})
	require.NoError(t, err)
	_, err = engine.Write(ctx, other, uri, ModeAppend)
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema")
}

func TestStoreEngineOverwriteCreatesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	engine := NewStoreEngine(blobstore.NewMemoryStore())

	tbl := testTable(t, []int64{1}, []float32{0, 0})
	handle, err := engine.Write(ctx, tbl, "db/new.vectab", ModeOverwrite)
	require.NoError(t, err)
	require.Equal(t, uint64(1), handle.Version())
}

func TestOverwriteKeepsPinnedVersionIntact(t *testing.T) {
	ctx := context.Background()
	engine := NewStoreEngine(blobstore.NewMemoryStore())
	uri := "db/pinned.vectab"

	pinned, err := engine.Write(ctx, testTable(t, []int64{1, 2}, []float32{0, 0, 1, 1}), uri, ModeCreate)
	require.NoError(t, err)

	_, err = engine.Write(ctx, testTable(t, []int64{9}, []float32{5, 5}), uri, ModeOverwrite)
	require.NoError(t, err)

	// The pinned handle must still serve version 1 in full: the overwrite
	// may not touch any fragment an earlier manifest references.
	count, err := pinned.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	results, err := pinned.Scan(ctx, []float32{0, 0}, 10, MetricL2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NotEqual(t, int64(9), r.Row["id"])
	}

	latest, err := engine.Open(ctx, uri)
	require.NoError(t, err)
	count, err = latest.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	results, err = latest.Scan(ctx, []float32{5, 5}, 10, MetricL2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int64(9), results[0].Row["id"])
}

func TestStoreEngineEmptyTable(t *testing.T) {
	ctx := context.Background()
	engine := NewStoreEngine(blobstore.NewMemoryStore())
	uri := "db/empty.vectab"

	schema, err := columnar.NewSchema(
		columnar.Field{Name: "id", Type: columnar.Int64},
		columnar.Field{Name: VectorColumnName, Type: columnar.FixedSizeListOf(columnar.Float32, 2)},
	)
	require.NoError(t, err)
	empty, err := columnar.Empty(schema)
	require.NoError(t, err)

	handle, err := engine.Write(ctx, empty, uri, ModeCreate)
	require.NoError(t, err)

	count, err := handle.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	// Schema is preserved even without any fragment.
	reopened, err := engine.Open(ctx, uri)
	require.NoError(t, err)
	require.True(t, schema.Equal(reopened.Schema()))
}

func TestHandleScan(t *testing.T) {
	ctx := context.Background()
	engine := NewStoreEngine(blobstore.NewMemoryStore())
	uri := "db/scan.vectab"

	tbl := testTable(t, []int64{1, 2, 3}, []float32{0, 0, 3, 3, 1, 1})
	handle, err := engine.Write(ctx, tbl, uri, ModeCreate)
	require.NoError(t, err)

	results, err := handle.Scan(ctx, []float32{0, 0}, 2, MetricL2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(1), results[0].Row["id"])
	require.Equal(t, int64(3), results[1].Row["id"])
	require.Equal(t, float32(0), results[0].Distance)
	require.Equal(t, float32(2), results[1].Distance)

	// k larger than the row count returns everything.
	results, err = handle.Scan(ctx, []float32{0, 0}, 10, MetricL2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Dot distances are negated so ascending order still means best first.
	results, err = handle.Scan(ctx, []float32{1, 1}, 3, MetricDot)
	require.NoError(t, err)
	require.Equal(t, int64(2), results[0].Row["id"])
	require.Equal(t, float32(-6), results[0].Distance)

	results, err = handle.Scan(ctx, []float32{1, 1}, 1, MetricCosine)
	require.NoError(t, err)
	require.InDelta(t, 0, results[0].Distance, 1e-6)

	var dimErr *DimensionMismatchError
	_, err = handle.Scan(ctx, []float32{0, 0, 0}, 1, MetricL2)
	require.ErrorAs(t, err, &dimErr)
	require.Equal(t, 2, dimErr.Expected)
	require.Equal(t, 3, dimErr.Actual)

	_, err = handle.Scan(ctx, []float32{0, 0}, 0, MetricL2)
	require.Error(t, err)
}

func TestHandleScanSpansFragments(t *testing.T) {
	ctx := context.Background()
	engine := NewStoreEngine(blobstore.NewMemoryStore())
	uri := "db/multi.vectab"

	_, err := engine.Write(ctx, testTable(t, []int64{1}, []float32{0, 0}), uri, ModeCreate)
	require.NoError(t, err)
	handle, err := engine.Write(ctx, testTable(t, []int64{2}, []float32{1, 1}), uri, ModeAppend)
	require.NoError(t, err)

	results, err := handle.Scan(ctx, []float32{1, 1}, 2, MetricL2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(2), results[0].Row["id"])
	require.Equal(t, int64(1), results[1].Row["id"])
}

func TestHandleDelete(t *testing.T) {
	ctx := context.Background()
	engine := NewStoreEngine(blobstore.NewMemoryStore())
	uri := "db/delete.vectab"

	tbl := testTable(t, []int64{1, 2, 3}, []float32{0, 0, 1, 1, 2, 2})
	handle, err := engine.Write(ctx, tbl, uri, ModeCreate)
	require.NoError(t, err)

	deleted, err := handle.Delete(ctx, func(row columnar.Row) bool {
		return row["id"].(int64) == 2
	})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	// The handle stays pinned to its version; a re-open sees the deletion.
	require.Equal(t, uint64(1), handle.Version())

	reopened, err := engine.Open(ctx, uri)
	require.NoError(t, err)
	require.Equal(t, uint64(2), reopened.Version())

	count, err := reopened.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	results, err := reopened.Scan(ctx, []float32{1, 1}, 3, MetricL2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NotEqual(t, int64(2), r.Row["id"])
	}

	// A second delete stacks on the existing tombstones.
	deleted, err = reopened.Delete(ctx, func(row columnar.Row) bool {
		return row["id"].(int64) == 1
	})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	final, err := engine.Open(ctx, uri)
	require.NoError(t, err)
	count, err = final.CountRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// No matches means no new version.
	deleted, err = final.Delete(ctx, func(columnar.Row) bool { return false })
	require.NoError(t, err)
	require.Equal(t, 0, deleted)

	latest, err := engine.Open(ctx, uri)
	require.NoError(t, err)
	require.Equal(t, final.Version(), latest.Version())
}

func TestBlobCommitStoreConflict(t *testing.T) {
	ctx := context.Background()
	commits := NewBlobCommitStore(blobstore.NewMemoryStore())
	uri := "db/items.vectab"

	require.NoError(t, commits.Commit(ctx, uri, 1, "manifest-1"))

	err := commits.Commit(ctx, uri, 1, "manifest-1b")
	require.ErrorIs(t, err, ErrCommitConflict)

	require.NoError(t, commits.Commit(ctx, uri, 2, "manifest-2"))

	version, path, err := commits.Latest(ctx, uri)
	require.NoError(t, err)
	require.Equal(t, uint64(2), version)
	require.Equal(t, "manifest-2", path)

	require.NoError(t, commits.Reset(ctx, uri))

	version, _, err = commits.Latest(ctx, uri)
	require.NoError(t, err)
	require.Equal(t, uint64(0), version)
}
