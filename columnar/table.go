package columnar

import (
	"fmt"
	"sort"
)

// Row is a single record keyed by column name.
type Row map[string]any

// Table is an immutable ordered collection of equal-length columns with
// unique names.
type Table struct {
	cols []*Column
	rows int
}

// NewTable builds a table from columns, validating that names are unique
// and row counts match.
func NewTable(cols ...*Column) (*Table, error) {
	rows := 0
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("columnar: nil column at position %d", i)
		}
		if _, dup := seen[c.Name()]; dup {
			return nil, fmt.Errorf("columnar: duplicate column name %q", c.Name())
		}
		seen[c.Name()] = struct{}{}
		if i == 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			return nil, fmt.Errorf("columnar: column %q has %d rows, want %d", c.Name(), c.Len(), rows)
		}
	}
	return &Table{cols: cols, rows: rows}, nil
}

// Empty returns a zero-row table with the given schema.
func Empty(schema Schema) (*Table, error) {
	cols := make([]*Column, len(schema))
	for i, f := range schema {
		values, err := emptyStorage(f.Type)
		if err != nil {
			return nil, err
		}
		var offsets []int32
		if f.Type.ID() == TypeList {
			offsets = []int32{0}
		}
		cols[i] = newTyped(f, 0, values, offsets)
	}
	return NewTable(cols...)
}

func emptyStorage(t DataType) (any, error) {
	elem := t
	if t.IsList() {
		elem = t.Elem()
	}
	switch elem.id {
	case TypeInt64:
		return []int64{}, nil
	case TypeFloat32:
		return []float32{}, nil
	case TypeFloat64:
		return []float64{}, nil
	case TypeString:
		return []string{}, nil
	case TypeBool:
		return []bool{}, nil
	default:
		return nil, fmt.Errorf("columnar: cannot allocate storage for %s", t)
	}
}

// FromRows columnizes a sequence of row mappings. Column order is the
// sorted union of field names; types are inferred from the first value of
// each field. Every row must supply every field.
func FromRows(rows []Row) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("columnar: cannot build table from zero rows")
	}
	nameSet := make(map[string]struct{})
	for _, r := range rows {
		for name := range r {
			nameSet[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		cells := make([]any, len(rows))
		for i, r := range rows {
			v, ok := r[name]
			if !ok || v == nil {
				return nil, fmt.Errorf("columnar: row %d is missing field %q", i, name)
			}
			cells[i] = v
		}
		typ, err := inferType(cells[0])
		if err != nil {
			return nil, fmt.Errorf("columnar: column %q: %w", name, err)
		}
		col, err := buildColumn(name, typ, cells)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return NewTable(cols...)
}

// FromSlices builds a table from parallel name and column-value slices,
// preserving the given column order.
func FromSlices(names []string, columns []any) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("columnar: %d names for %d columns", len(names), len(columns))
	}
	cols := make([]*Column, len(names))
	for i, name := range names {
		col, err := NewColumn(name, columns[i])
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return NewTable(cols...)
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.cols) }

// Schema returns the table's schema in column order.
func (t *Table) Schema() Schema {
	fields := make([]Field, len(t.cols))
	for i, c := range t.cols {
		fields[i] = c.Field()
	}
	return Schema(fields)
}

// Column returns the column at ordinal position i.
func (t *Table) Column(i int) *Column { return t.cols[i] }

// ColumnByName returns the named column and its ordinal position, or
// (nil, -1) if absent.
func (t *Table) ColumnByName(name string) (*Column, int) {
	for i, c := range t.cols {
		if c.Name() == name {
			return c, i
		}
	}
	return nil, -1
}

// SetColumn returns a new table with the column at position i replaced.
// The replacement must have the same row count.
func (t *Table) SetColumn(i int, col *Column) (*Table, error) {
	if i < 0 || i >= len(t.cols) {
		return nil, fmt.Errorf("columnar: column index %d out of range", i)
	}
	cols := make([]*Column, len(t.cols))
	copy(cols, t.cols)
	cols[i] = col
	return NewTable(cols...)
}

// AppendColumn returns a new table with col appended as the last column.
func (t *Table) AppendColumn(col *Column) (*Table, error) {
	cols := make([]*Column, 0, len(t.cols)+1)
	cols = append(cols, t.cols...)
	cols = append(cols, col)
	return NewTable(cols...)
}

// Row materializes row i as a mapping from column name to value.
func (t *Table) Row(i int) Row {
	row := make(Row, len(t.cols))
	for _, c := range t.cols {
		row[c.Name()] = c.Value(i)
	}
	return row
}

// Equal reports whether two tables have identical schemas and contents.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for i := range t.cols {
		if !t.cols[i].Equal(o.cols[i]) {
			return false
		}
	}
	return true
}
