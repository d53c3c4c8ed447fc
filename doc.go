// Package vectab provides an embedded, table-oriented embedding store for Go.
//
// Vectab accepts heterogeneous tabular input (row records, vector mappings,
// column frames or canonical columnar tables), normalizes it into a single
// canonical representation with a fixed-width float32 vector column, and
// persists it as versioned, immutable datasets behind a pluggable object
// store.
//
// # Quick Start
//
// Local mode:
//
//	ctx := context.Background()
//	conn, _ := vectab.Connect("./data")
//	tbl, _ := conn.CreateTable(ctx, "items", vectab.Rows{
//	    {"id": int64(1), "vector": []float32{0.1, 0.2}},
//	    {"id": int64(2), "vector": []float32{0.3, 0.4}},
//	}, nil)
//
//	results, _ := tbl.MustSearch([]float32{0.1, 0.2}).Limit(5).Execute(ctx)
//
// Cloud mode:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", "vectors")
//	conn, _ := vectab.Connect("db", vectab.WithStore(s3Store))
//
// # Input Variants
//
// Data is a closed set of input shapes:
//
//	// 1. ROW RECORDS — one mapping per row.
//	vectab.Rows{{"id": int64(1), "vector": []float32{0.1, 0.2}}}
//
//	// 2. VECTOR MAPPING — id to embedding; becomes an (id, vector) table.
//	vectab.VectorMap{"a": {0.1, 0.2}, "b": {0.3, 0.4}}
//
//	// 3. COLUMN FRAME — ordered named columns.
//	vectab.Frame{Names: []string{"id", "vector"}, Columns: []any{ids, vecs}}
//
//	// 4. CANONICAL TABLE — passed through for reconciliation only.
//	vectab.Canonical{Table: tbl}
//
// Whatever the variant, the designated "vector" column always ends up as a
// fixed-size list of float32 with a uniform width before anything is
// written.
//
// # Staleness Model
//
// A Table binds to one committed dataset version on first use and stays
// pinned to it. Writes made later, through the same handle or by other
// writers, are not visible until the table is re-opened. Callers needing
// freshness must call Connection.OpenTable again.
package vectab
