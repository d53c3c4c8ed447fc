package dataset

import (
	"context"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vectab/columnar"
	"github.com/hupe1980/vectab/fragment"
)

// storeHandle is a read view pinned to one committed manifest version.
type storeHandle struct {
	engine *StoreEngine
	uri    string
	man    *manifest
	schema columnar.Schema
}

func (h *storeHandle) URI() string { return h.uri }

func (h *storeHandle) Version() uint64 { return h.man.Version }

func (h *storeHandle) Schema() columnar.Schema { return h.schema }

func (h *storeHandle) CountRows(_ context.Context) (int, error) {
	return h.man.liveRows(), nil
}

// loadFragment fetches and decodes one fragment together with its
// deletion bitmap. The bitmap is nil when no rows are tombstoned.
func (h *storeHandle) loadFragment(ctx context.Context, ref fragmentRef) (*columnar.Table, *roaring.Bitmap, error) {
	blob, err := h.engine.store.Get(ctx, ref.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: load fragment %s: %w", ref.Path, err)
	}
	tbl, err := fragment.Decode(blob)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: decode fragment %s: %w", ref.Path, err)
	}

	var deleted *roaring.Bitmap
	if ref.DeletionPath != "" {
		raw, err := h.engine.store.Get(ctx, ref.DeletionPath)
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: load deletion file %s: %w", ref.DeletionPath, err)
		}
		deleted = roaring.New()
		if err := deleted.UnmarshalBinary(raw); err != nil {
			return nil, nil, fmt.Errorf("dataset: decode deletion file %s: %w", ref.DeletionPath, err)
		}
	}
	return tbl, deleted, nil
}

// Scan is an exact flat scan: every live row's vector is compared against
// the query and the k nearest are returned in ascending distance order.
func (h *storeHandle) Scan(ctx context.Context, query []float32, k int, metric Metric) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("dataset: scan limit must be positive, got %d", k)
	}

	field, ok := h.schema.Field(VectorColumnName)
	if !ok {
		return nil, fmt.Errorf("dataset: schema %s has no %q column", h.schema, VectorColumnName)
	}
	if field.Type.ID() != columnar.TypeFixedSizeList || field.Type.Elem().ID() != columnar.TypeFloat32 {
		return nil, fmt.Errorf("dataset: column %q is %s, not a fixed-size float32 list", VectorColumnName, field.Type)
	}
	if field.Type.Width() != len(query) {
		return nil, &DimensionMismatchError{Expected: field.Type.Width(), Actual: len(query)}
	}

	var results []Result
	for _, ref := range h.man.Fragments {
		if ref.Deleted >= ref.Rows {
			continue
		}
		tbl, deleted, err := h.loadFragment(ctx, ref)
		if err != nil {
			return nil, err
		}
		col, _ := tbl.ColumnByName(VectorColumnName)
		if col == nil {
			return nil, fmt.Errorf("dataset: fragment %s is missing the %q column", ref.Path, VectorColumnName)
		}
		for i := 0; i < tbl.NumRows(); i++ {
			if deleted != nil && deleted.Contains(uint32(i)) {
				continue
			}
			vec, err := col.Float32Row(i)
			if err != nil {
				return nil, err
			}
			results = append(results, Result{
				Row:      tbl.Row(i),
				Distance: distance(metric, query, vec),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete tombstones live rows matching pred and commits a new manifest
// version. Fragments stay immutable; only deletion bitmaps are added.
func (h *storeHandle) Delete(ctx context.Context, pred func(columnar.Row) bool) (int, error) {
	newVersion := h.man.Version + 1
	next := &manifest{
		Version: newVersion,
		Schema:  h.man.Schema,
	}

	total := 0
	for _, ref := range h.man.Fragments {
		if ref.Deleted >= ref.Rows {
			next.Fragments = append(next.Fragments, ref)
			continue
		}
		tbl, deleted, err := h.loadFragment(ctx, ref)
		if err != nil {
			return 0, err
		}
		if deleted == nil {
			deleted = roaring.New()
		}

		matched := 0
		for i := 0; i < tbl.NumRows(); i++ {
			if deleted.Contains(uint32(i)) {
				continue
			}
			if pred(tbl.Row(i)) {
				deleted.Add(uint32(i))
				matched++
			}
		}
		if matched == 0 {
			next.Fragments = append(next.Fragments, ref)
			continue
		}

		raw, err := deleted.MarshalBinary()
		if err != nil {
			return 0, fmt.Errorf("dataset: encode deletion bitmap: %w", err)
		}
		path := deletionPath(h.uri, ref.ID, newVersion)
		if err := h.engine.store.Put(ctx, path, raw); err != nil {
			return 0, err
		}

		ref.DeletionPath = path
		ref.Deleted = int(deleted.GetCardinality())
		next.Fragments = append(next.Fragments, ref)
		total += matched
	}

	if total == 0 {
		return 0, nil
	}
	if _, err := h.engine.commit(ctx, h.uri, next); err != nil {
		return 0, err
	}
	return total, nil
}
