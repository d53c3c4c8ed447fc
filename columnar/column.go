package columnar

import (
	"fmt"
)

// Column is an immutable named, typed sequence of values.
//
// The backing storage is a single flat Go slice. Scalar columns store one
// element per row. List columns store a flattened value slice plus an
// offsets slice of length rows+1; fixed-size list columns store rows*width
// flattened values and no offsets.
type Column struct {
	field   Field
	length  int
	values  any
	offsets []int32
}

// NewColumn builds a scalar or list column from a Go slice, inferring the
// column type from the slice's element type. Supported slices: []int64,
// []int, []float32, []float64, []string, []bool, [][]float32, [][]float64,
// [][]int64, [][]int, [][]string, [][]bool and []any (type inferred from
// the first element).
func NewColumn(name string, values any) (*Column, error) {
	switch v := values.(type) {
	case []int64:
		return newScalar(name, Int64, v, len(v)), nil
	case []int:
		conv := make([]int64, len(v))
		for i, x := range v {
			conv[i] = int64(x)
		}
		return newScalar(name, Int64, conv, len(conv)), nil
	case []float32:
		return newScalar(name, Float32, v, len(v)), nil
	case []float64:
		return newScalar(name, Float64, v, len(v)), nil
	case []string:
		return newScalar(name, String, v, len(v)), nil
	case []bool:
		return newScalar(name, Bool, v, len(v)), nil
	case [][]float32:
		flat, offsets := flattenF32(v)
		return newList(name, Float32, flat, offsets), nil
	case [][]float64:
		flat, offsets := flattenF64(v)
		return newList(name, Float64, flat, offsets), nil
	case [][]int64:
		var flat []int64
		offsets := make([]int32, 1, len(v)+1)
		for _, row := range v {
			flat = append(flat, row...)
			offsets = append(offsets, int32(len(flat)))
		}
		return newList(name, Int64, flat, offsets), nil
	case [][]int:
		var flat []int64
		offsets := make([]int32, 1, len(v)+1)
		for _, row := range v {
			for _, x := range row {
				flat = append(flat, int64(x))
			}
			offsets = append(offsets, int32(len(flat)))
		}
		return newList(name, Int64, flat, offsets), nil
	case [][]string:
		var flat []string
		offsets := make([]int32, 1, len(v)+1)
		for _, row := range v {
			flat = append(flat, row...)
			offsets = append(offsets, int32(len(flat)))
		}
		return newList(name, String, flat, offsets), nil
	case [][]bool:
		var flat []bool
		offsets := make([]int32, 1, len(v)+1)
		for _, row := range v {
			flat = append(flat, row...)
			offsets = append(offsets, int32(len(flat)))
		}
		return newList(name, Bool, flat, offsets), nil
	case []any:
		return columnFromAnySlice(name, v)
	default:
		return nil, fmt.Errorf("columnar: cannot build column %q from %T", name, values)
	}
}

func newScalar(name string, typ DataType, values any, length int) *Column {
	return &Column{
		field:  Field{Name: name, Type: typ},
		length: length,
		values: values,
	}
}

func newList(name string, elem DataType, values any, offsets []int32) *Column {
	return &Column{
		field:   Field{Name: name, Type: ListOf(elem)},
		length:  len(offsets) - 1,
		values:  values,
		offsets: offsets,
	}
}

// NewFixedSizeListColumn builds a fixed-size float32 list column. Every
// row must have exactly width values; len(values) must equal rows*width.
func NewFixedSizeListColumn(name string, width int, values []float32) (*Column, error) {
	if width <= 0 {
		return nil, fmt.Errorf("columnar: fixed-size list width must be positive, got %d", width)
	}
	if len(values)%width != 0 {
		return nil, fmt.Errorf("columnar: %d values not divisible by width %d", len(values), width)
	}
	return &Column{
		field:  Field{Name: name, Type: FixedSizeListOf(Float32, width)},
		length: len(values) / width,
		values: values,
	}, nil
}

// newTyped builds a column from already-normalized backing storage. The
// caller guarantees consistency between typ, values, offsets and length.
func newTyped(field Field, length int, values any, offsets []int32) *Column {
	return &Column{field: field, length: length, values: values, offsets: offsets}
}

func flattenF32(rows [][]float32) ([]float32, []int32) {
	var flat []float32
	offsets := make([]int32, 1, len(rows)+1)
	for _, r := range rows {
		flat = append(flat, r...)
		offsets = append(offsets, int32(len(flat)))
	}
	return flat, offsets
}

func flattenF64(rows [][]float64) ([]float64, []int32) {
	var flat []float64
	offsets := make([]int32, 1, len(rows)+1)
	for _, r := range rows {
		flat = append(flat, r...)
		offsets = append(offsets, int32(len(flat)))
	}
	return flat, offsets
}

func columnFromAnySlice(name string, values []any) (*Column, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("columnar: cannot infer type of empty column %q", name)
	}
	typ, err := inferType(values[0])
	if err != nil {
		return nil, fmt.Errorf("columnar: column %q: %w", name, err)
	}
	return buildColumn(name, typ, values)
}

// Field returns the column's field (name and type).
func (c *Column) Field() Field { return c.field }

// Name returns the column name.
func (c *Column) Name() string { return c.field.Name }

// Type returns the column type.
func (c *Column) Type() DataType { return c.field.Type }

// Len returns the number of rows.
func (c *Column) Len() int { return c.length }

// Values exposes the flat backing slice. For list columns this is the
// flattened value storage. The slice must not be mutated.
func (c *Column) Values() any { return c.values }

// Offsets exposes the offsets slice of a variable-length list column, or
// nil for scalar and fixed-size list columns. Must not be mutated.
func (c *Column) Offsets() []int32 { return c.offsets }

// Rename returns a column with the same storage under a new name.
func (c *Column) Rename(name string) *Column {
	renamed := *c
	renamed.field.Name = name
	return &renamed
}

// Value returns the value at row i. Scalars are returned as their Go
// type; list rows are returned as a freshly sliced sub-slice of the
// backing storage (int64/float32/float64/string/bool element types).
func (c *Column) Value(i int) any {
	if i < 0 || i >= c.length {
		return nil
	}
	switch c.field.Type.id {
	case TypeList:
		start, end := int(c.offsets[i]), int(c.offsets[i+1])
		return sliceRange(c.values, start, end)
	case TypeFixedSizeList:
		w := c.field.Type.width
		return sliceRange(c.values, i*w, (i+1)*w)
	default:
		switch v := c.values.(type) {
		case []int64:
			return v[i]
		case []float32:
			return v[i]
		case []float64:
			return v[i]
		case []string:
			return v[i]
		case []bool:
			return v[i]
		}
	}
	return nil
}

// Float32Row returns row i of a fixed-size list of float32 column.
func (c *Column) Float32Row(i int) ([]float32, error) {
	if c.field.Type.id != TypeFixedSizeList || c.field.Type.Elem().id != TypeFloat32 {
		return nil, fmt.Errorf("columnar: column %q is %s, not a fixed-size float32 list", c.field.Name, c.field.Type)
	}
	w := c.field.Type.width
	values := c.values.([]float32)
	return values[i*w : (i+1)*w], nil
}

func sliceRange(values any, start, end int) any {
	switch v := values.(type) {
	case []int64:
		return v[start:end:end]
	case []float32:
		return v[start:end:end]
	case []float64:
		return v[start:end:end]
	case []string:
		return v[start:end:end]
	case []bool:
		return v[start:end:end]
	}
	return nil
}

// Equal reports whether two columns have identical fields and contents.
func (c *Column) Equal(o *Column) bool {
	if c.field.Name != o.field.Name || !c.field.Type.Equal(o.field.Type) || c.length != o.length {
		return false
	}
	if len(c.offsets) != len(o.offsets) {
		return false
	}
	for i := range c.offsets {
		if c.offsets[i] != o.offsets[i] {
			return false
		}
	}
	return valuesEqual(c.values, o.values)
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case []int64:
		bv, ok := b.([]int64)
		return ok && int64SlicesEqual(av, bv)
	case []float32:
		bv, ok := b.([]float32)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []float64:
		bv, ok := b.([]float64)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []bool:
		bv, ok := b.([]bool)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}
	return false
}

func int64SlicesEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
