package vectab

import (
	"fmt"
	"sort"

	"github.com/hupe1980/vectab/columnar"
	"github.com/hupe1980/vectab/dataset"
)

// Data is the closed set of input shapes accepted by CreateTable and Add:
// Rows, VectorMap, Frame and Canonical. The interface is sealed; anything
// else is rejected with an UnsupportedInputError before any conversion is
// attempted.
type Data interface {
	isData()
}

// Rows is row-oriented input: one mapping per row, field name to value.
// Every row must supply every field.
type Rows []columnar.Row

func (Rows) isData() {}

// VectorMap is a mapping from record id to embedding. It becomes a
// two-column table with a string "id" column (the map keys, sorted) and
// the canonical "vector" column.
type VectorMap map[string][]float32

func (VectorMap) isData() {}

// Frame is column-oriented input: ordered named columns of equal length.
// Column values follow the slice types accepted by columnar.NewColumn.
type Frame struct {
	Names   []string
	Columns []any
}

func (Frame) isData() {}

// Canonical wraps an already-canonical columnar table. It is passed
// through for schema reconciliation only.
type Canonical struct {
	Table *columnar.Table
}

func (Canonical) isData() {}

// sanitizeData converts any supported input shape into a canonical table
// and reconciles it against target. Pure transformation, no side effects.
func sanitizeData(data Data, target columnar.Schema, strict bool) (*columnar.Table, error) {
	switch d := data.(type) {
	case Rows:
		tbl, err := columnar.FromRows(d)
		if err != nil {
			return nil, err
		}
		return sanitizeSchema(tbl, target, strict)
	case VectorMap:
		tbl, err := vectorMapTable(d)
		if err != nil {
			return nil, err
		}
		return sanitizeSchema(tbl, target, strict)
	case Frame:
		tbl, err := columnar.FromSlices(d.Names, d.Columns)
		if err != nil {
			return nil, err
		}
		return sanitizeSchema(tbl, target, strict)
	case Canonical:
		if d.Table == nil {
			return nil, &UnsupportedInputError{Value: d.Table}
		}
		return sanitizeSchema(d.Table, target, strict)
	default:
		return nil, &UnsupportedInputError{Value: data}
	}
}

func vectorMapTable(m VectorMap) (*columnar.Table, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	vectors := make([][]float32, len(ids))
	for i, id := range ids {
		vectors[i] = m[id]
	}
	return columnar.FromSlices(
		[]string{"id", dataset.VectorColumnName},
		[]any{ids, vectors},
	)
}

// sanitizeSchema reconciles tbl against target. Without a target it
// delegates to vector-column normalization under the canonical column
// name. With a target it is a strict reconciliation: target fields are
// cast in target order, extra source columns are dropped, and a missing
// source field is an error rather than a partial merge.
func sanitizeSchema(tbl *columnar.Table, target columnar.Schema, strict bool) (*columnar.Table, error) {
	if target == nil {
		return sanitizeVectorColumn(tbl, dataset.VectorColumnName, strict)
	}
	if tbl.Schema().Equal(target) {
		return tbl, nil
	}

	cols := make([]*columnar.Column, len(target))
	for i, field := range target {
		col, _ := tbl.ColumnByName(field.Name)
		if col == nil {
			return nil, &SchemaCastError{Field: field.Name, To: field.Type}
		}
		cast, err := col.Cast(field.Type)
		if err != nil {
			return nil, &SchemaCastError{
				Field: field.Name,
				From:  col.Type(),
				To:    field.Type,
				cause: err,
			}
		}
		cols[i] = cast
	}
	return columnar.NewTable(cols...)
}

// sanitizeVectorColumn guarantees that the named column is a fixed-size
// float32 list with uniform width. An already-normalized column returns
// the table unchanged.
func sanitizeVectorColumn(tbl *columnar.Table, name string, strict bool) (*columnar.Table, error) {
	col, idx := tbl.ColumnByName(name)
	if col == nil {
		return nil, &MissingVectorColumnError{Name: name, Schema: tbl.Schema()}
	}

	typ := col.Type()
	switch typ.ID() {
	case columnar.TypeFixedSizeList:
		if typ.Elem().ID() == columnar.TypeFloat32 {
			return tbl, nil
		}
		if !typ.Elem().IsNumeric() {
			return nil, &UnsupportedVectorColumnTypeError{Name: name, Type: typ}
		}
		cast, err := col.Cast(columnar.FixedSizeListOf(columnar.Float32, typ.Width()))
		if err != nil {
			return nil, &UnsupportedVectorColumnTypeError{Name: name, Type: typ, cause: err}
		}
		return tbl.SetColumn(idx, cast)
	case columnar.TypeList:
		if !typ.Elem().IsNumeric() {
			return nil, &UnsupportedVectorColumnTypeError{Name: name, Type: typ}
		}
		width, err := vectorWidth(col, strict)
		if err != nil {
			return nil, &UnsupportedVectorColumnTypeError{Name: name, Type: typ, cause: err}
		}
		values, err := col.Cast(columnar.ListOf(columnar.Float32))
		if err != nil {
			return nil, &UnsupportedVectorColumnTypeError{Name: name, Type: typ, cause: err}
		}
		fixed, err := columnar.NewFixedSizeListColumn(name, width, values.Values().([]float32))
		if err != nil {
			return nil, &UnsupportedVectorColumnTypeError{Name: name, Type: typ, cause: err}
		}
		return tbl.SetColumn(idx, fixed)
	default:
		return nil, &UnsupportedVectorColumnTypeError{Name: name, Type: typ}
	}
}

// vectorWidth infers the uniform row width of a variable-length list
// column. Strict mode checks every row against the first; non-strict only
// requires the total to divide evenly by the row count.
func vectorWidth(col *columnar.Column, strict bool) (int, error) {
	rows := col.Len()
	if rows == 0 {
		return 0, fmt.Errorf("cannot infer vector width from an empty column")
	}
	offsets := col.Offsets()
	total := int(offsets[rows])

	if strict {
		width := int(offsets[1] - offsets[0])
		for i := 1; i < rows; i++ {
			if got := int(offsets[i+1] - offsets[i]); got != width {
				return 0, fmt.Errorf("row %d has %d values, want %d", i, got, width)
			}
		}
		if width <= 0 {
			return 0, fmt.Errorf("vector width must be positive, got %d", width)
		}
		return width, nil
	}

	if total == 0 || total%rows != 0 {
		return 0, fmt.Errorf("%d values not divisible by %d rows", total, rows)
	}
	return total / rows, nil
}
