package columnar

import (
	"fmt"
)

// inferType maps a Go value to the column type it implies. Integers map to
// Int64, float64 to Float64, float32 to Float32. Slices map to list types
// of the element-implied type.
func inferType(v any) (DataType, error) {
	switch val := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int64, nil
	case float32:
		return Float32, nil
	case float64:
		return Float64, nil
	case string:
		return String, nil
	case bool:
		return Bool, nil
	case []float32:
		return ListOf(Float32), nil
	case []float64:
		return ListOf(Float64), nil
	case []int, []int64, []int32:
		return ListOf(Int64), nil
	case []string:
		return ListOf(String), nil
	case []any:
		if len(val) == 0 {
			return ListOf(Float64), nil
		}
		elem, err := inferType(val[0])
		if err != nil {
			return DataType{}, err
		}
		if elem.IsList() {
			return DataType{}, fmt.Errorf("nested lists are not supported")
		}
		return ListOf(elem), nil
	case nil:
		return DataType{}, fmt.Errorf("cannot infer type from nil value")
	default:
		return DataType{}, fmt.Errorf("cannot infer type from %T", v)
	}
}

// buildColumn converts a cell-per-row []any into a typed column.
func buildColumn(name string, typ DataType, cells []any) (*Column, error) {
	switch typ.id {
	case TypeInt64:
		out := make([]int64, len(cells))
		for i, cell := range cells {
			v, ok := asInt64(cell)
			if !ok {
				return nil, cellError(name, i, typ, cell)
			}
			out[i] = v
		}
		return newScalar(name, Int64, out, len(out)), nil
	case TypeFloat32:
		out := make([]float32, len(cells))
		for i, cell := range cells {
			v, ok := asFloat64(cell)
			if !ok {
				return nil, cellError(name, i, typ, cell)
			}
			out[i] = float32(v)
		}
		return newScalar(name, Float32, out, len(out)), nil
	case TypeFloat64:
		out := make([]float64, len(cells))
		for i, cell := range cells {
			v, ok := asFloat64(cell)
			if !ok {
				return nil, cellError(name, i, typ, cell)
			}
			out[i] = v
		}
		return newScalar(name, Float64, out, len(out)), nil
	case TypeString:
		out := make([]string, len(cells))
		for i, cell := range cells {
			v, ok := cell.(string)
			if !ok {
				return nil, cellError(name, i, typ, cell)
			}
			out[i] = v
		}
		return newScalar(name, String, out, len(out)), nil
	case TypeBool:
		out := make([]bool, len(cells))
		for i, cell := range cells {
			v, ok := cell.(bool)
			if !ok {
				return nil, cellError(name, i, typ, cell)
			}
			out[i] = v
		}
		return newScalar(name, Bool, out, len(out)), nil
	case TypeList:
		return buildListColumn(name, typ.Elem(), cells)
	default:
		return nil, fmt.Errorf("columnar: column %q: cannot build %s from row values", name, typ)
	}
}

func buildListColumn(name string, elem DataType, cells []any) (*Column, error) {
	offsets := make([]int32, 1, len(cells)+1)
	switch elem.id {
	case TypeFloat32:
		var flat []float32
		for i, cell := range cells {
			row, ok := asFloat64List(cell)
			if !ok {
				return nil, cellError(name, i, ListOf(elem), cell)
			}
			for _, x := range row {
				flat = append(flat, float32(x))
			}
			offsets = append(offsets, int32(len(flat)))
		}
		return newList(name, Float32, flat, offsets), nil
	case TypeFloat64:
		var flat []float64
		for i, cell := range cells {
			row, ok := asFloat64List(cell)
			if !ok {
				return nil, cellError(name, i, ListOf(elem), cell)
			}
			flat = append(flat, row...)
			offsets = append(offsets, int32(len(flat)))
		}
		return newList(name, Float64, flat, offsets), nil
	case TypeInt64:
		var flat []int64
		for i, cell := range cells {
			row, ok := asInt64List(cell)
			if !ok {
				return nil, cellError(name, i, ListOf(elem), cell)
			}
			flat = append(flat, row...)
			offsets = append(offsets, int32(len(flat)))
		}
		return newList(name, Int64, flat, offsets), nil
	case TypeString:
		var flat []string
		for i, cell := range cells {
			row, ok := asStringList(cell)
			if !ok {
				return nil, cellError(name, i, ListOf(elem), cell)
			}
			flat = append(flat, row...)
			offsets = append(offsets, int32(len(flat)))
		}
		return newList(name, String, flat, offsets), nil
	default:
		return nil, fmt.Errorf("columnar: column %q: unsupported list element type %s", name, elem)
	}
}

func cellError(name string, row int, typ DataType, cell any) error {
	return fmt.Errorf("columnar: column %q row %d: cannot convert %T to %s", name, row, cell, typ)
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

func asFloat64List(v any) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		return x, true
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	case []int:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case []int64:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			f, ok := asFloat64(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

func asInt64List(v any) ([]int64, bool) {
	switch x := v.(type) {
	case []int64:
		return x, true
	case []int:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out, true
	case []int32:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out, true
	case []any:
		out := make([]int64, len(x))
		for i, e := range x {
			n, ok := asInt64(e)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringList(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
