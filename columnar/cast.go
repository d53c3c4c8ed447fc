package columnar

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrIncompatibleCast is wrapped by every cast failure.
var ErrIncompatibleCast = errors.New("incompatible cast")

// Cast converts the column to the target type. Casting between numeric
// types, string to numeric, numeric to string, and list to fixed-size
// list (with uniform row lengths) are supported. A cast to the column's
// current type returns the column unchanged.
func (c *Column) Cast(to DataType) (*Column, error) {
	if c.field.Type.Equal(to) {
		return c, nil
	}
	switch to.id {
	case TypeInt64, TypeFloat32, TypeFloat64, TypeString:
		if c.field.Type.IsList() {
			return nil, c.castError(to, nil)
		}
		values, err := castScalarValues(c.values, to)
		if err != nil {
			return nil, c.castError(to, err)
		}
		return newTyped(Field{Name: c.field.Name, Type: to}, c.length, values, nil), nil
	case TypeList:
		if c.field.Type.id != TypeList {
			return nil, c.castError(to, nil)
		}
		values, err := castScalarValues(c.values, to.Elem())
		if err != nil {
			return nil, c.castError(to, err)
		}
		return newTyped(Field{Name: c.field.Name, Type: to}, c.length, values, c.offsets), nil
	case TypeFixedSizeList:
		return c.castToFixedSizeList(to)
	default:
		return nil, c.castError(to, nil)
	}
}

func (c *Column) castToFixedSizeList(to DataType) (*Column, error) {
	width := to.width
	switch c.field.Type.id {
	case TypeFixedSizeList:
		if c.field.Type.width != width {
			return nil, c.castError(to, fmt.Errorf("width %d != %d", c.field.Type.width, width))
		}
		values, err := castScalarValues(c.values, to.Elem())
		if err != nil {
			return nil, c.castError(to, err)
		}
		return newTyped(Field{Name: c.field.Name, Type: to}, c.length, values, nil), nil
	case TypeList:
		for i := 0; i < c.length; i++ {
			if got := int(c.offsets[i+1] - c.offsets[i]); got != width {
				return nil, c.castError(to, fmt.Errorf("row %d has %d values, want %d", i, got, width))
			}
		}
		values, err := castScalarValues(c.values, to.Elem())
		if err != nil {
			return nil, c.castError(to, err)
		}
		return newTyped(Field{Name: c.field.Name, Type: to}, c.length, values, nil), nil
	default:
		return nil, c.castError(to, nil)
	}
}

func (c *Column) castError(to DataType, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: column %q: %s to %s: %w", ErrIncompatibleCast, c.field.Name, c.field.Type, to, cause)
	}
	return fmt.Errorf("%w: column %q: %s to %s", ErrIncompatibleCast, c.field.Name, c.field.Type, to)
}

// castScalarValues converts a flat backing slice to the target scalar
// element type.
func castScalarValues(values any, to DataType) (any, error) {
	switch to.id {
	case TypeInt64:
		return castToInt64(values)
	case TypeFloat32:
		return castToFloat32(values)
	case TypeFloat64:
		return castToFloat64(values)
	case TypeString:
		return castToString(values)
	case TypeBool:
		if v, ok := values.([]bool); ok {
			return v, nil
		}
		return nil, fmt.Errorf("cannot cast %T to bool", values)
	default:
		return nil, fmt.Errorf("cannot cast to %s", to)
	}
}

func castToInt64(values any) (any, error) {
	switch v := values.(type) {
	case []int64:
		return v, nil
	case []float32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, nil
	case []float64:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, nil
	case []string:
		out := make([]int64, len(v))
		for i, s := range v {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("value %q at row %d is not an integer", s, i)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to int64", values)
	}
}

func castToFloat32(values any) (any, error) {
	switch v := values.(type) {
	case []float32:
		return v, nil
	case []float64:
		out := make([]float32, len(v))
		for i, x := range v {
			out[i] = float32(x)
		}
		return out, nil
	case []int64:
		out := make([]float32, len(v))
		for i, x := range v {
			out[i] = float32(x)
		}
		return out, nil
	case []string:
		out := make([]float32, len(v))
		for i, s := range v {
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("value %q at row %d is not numeric", s, i)
			}
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to float32", values)
	}
}

func castToFloat64(values any) (any, error) {
	switch v := values.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []string:
		out := make([]float64, len(v))
		for i, s := range v {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("value %q at row %d is not numeric", s, i)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to float64", values)
	}
}

func castToString(values any) (any, error) {
	switch v := values.(type) {
	case []string:
		return v, nil
	case []int64:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = strconv.FormatInt(x, 10)
		}
		return out, nil
	case []float32:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = strconv.FormatFloat(float64(x), 'g', -1, 32)
		}
		return out, nil
	case []float64:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to string", values)
	}
}
