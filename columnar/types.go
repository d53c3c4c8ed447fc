package columnar

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeID identifies the physical type of a column.
type TypeID int

const (
	TypeInvalid TypeID = iota
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeBool
	TypeList
	TypeFixedSizeList
)

// DataType describes a column type. Scalar types carry only an ID; list
// types additionally carry an element type, and fixed-size lists a width.
type DataType struct {
	id    TypeID
	elem  *DataType
	width int
}

// Predefined scalar types.
var (
	Int64   = DataType{id: TypeInt64}
	Float32 = DataType{id: TypeFloat32}
	Float64 = DataType{id: TypeFloat64}
	String  = DataType{id: TypeString}
	Bool    = DataType{id: TypeBool}
)

// ListOf returns a variable-length list type with the given element type.
func ListOf(elem DataType) DataType {
	e := elem
	return DataType{id: TypeList, elem: &e}
}

// FixedSizeListOf returns a fixed-size list type. Every row of a column of
// this type holds exactly width elements. width must be positive.
func FixedSizeListOf(elem DataType, width int) DataType {
	e := elem
	return DataType{id: TypeFixedSizeList, elem: &e, width: width}
}

// ID returns the type identifier.
func (t DataType) ID() TypeID { return t.id }

// Elem returns the element type of a list type, or an invalid type for
// scalars.
func (t DataType) Elem() DataType {
	if t.elem == nil {
		return DataType{}
	}
	return *t.elem
}

// Width returns the fixed list width, or 0 for non-fixed types.
func (t DataType) Width() int { return t.width }

// IsNumeric reports whether the type is a scalar numeric type.
func (t DataType) IsNumeric() bool {
	switch t.id {
	case TypeInt64, TypeFloat32, TypeFloat64:
		return true
	default:
		return false
	}
}

// IsList reports whether the type is a variable- or fixed-size list.
func (t DataType) IsList() bool {
	return t.id == TypeList || t.id == TypeFixedSizeList
}

// Equal reports whether two types are identical, including element types
// and widths.
func (t DataType) Equal(o DataType) bool {
	if t.id != o.id || t.width != o.width {
		return false
	}
	if t.elem == nil && o.elem == nil {
		return true
	}
	if t.elem == nil || o.elem == nil {
		return false
	}
	return t.elem.Equal(*o.elem)
}

// String returns the canonical textual form, e.g. "float32",
// "list<float64>" or "fixed_size_list<float32,128>". The form round-trips
// through ParseDataType.
func (t DataType) String() string {
	switch t.id {
	case TypeInt64:
		return "int64"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeList:
		return fmt.Sprintf("list<%s>", t.Elem())
	case TypeFixedSizeList:
		return fmt.Sprintf("fixed_size_list<%s,%d>", t.Elem(), t.width)
	default:
		return "invalid"
	}
}

// ParseDataType parses the textual form produced by DataType.String.
func ParseDataType(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "int64":
		return Int64, nil
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "string":
		return String, nil
	case "bool":
		return Bool, nil
	}
	if inner, ok := cutWrapped(s, "list<", ">"); ok {
		elem, err := ParseDataType(inner)
		if err != nil {
			return DataType{}, err
		}
		return ListOf(elem), nil
	}
	if inner, ok := cutWrapped(s, "fixed_size_list<", ">"); ok {
		elemStr, widthStr, found := strings.Cut(inner, ",")
		if !found {
			return DataType{}, fmt.Errorf("columnar: malformed fixed_size_list type %q", s)
		}
		elem, err := ParseDataType(elemStr)
		if err != nil {
			return DataType{}, err
		}
		width, err := strconv.Atoi(strings.TrimSpace(widthStr))
		if err != nil || width <= 0 {
			return DataType{}, fmt.Errorf("columnar: invalid fixed_size_list width %q", widthStr)
		}
		return FixedSizeListOf(elem, width), nil
	}
	return DataType{}, fmt.Errorf("columnar: unknown type %q", s)
}

func cutWrapped(s, prefix, suffix string) (string, bool) {
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, suffix) {
		return s[len(prefix) : len(s)-len(suffix)], true
	}
	return "", false
}

// Field is a named, typed schema entry.
type Field struct {
	Name string
	Type DataType
}

func (f Field) String() string {
	return fmt.Sprintf("%s: %s", f.Name, f.Type)
}

// Schema is an ordered sequence of fields. Order is significant when
// reconciling a table against a target schema.
type Schema []Field

// NewSchema builds a schema from fields, validating name uniqueness.
func NewSchema(fields ...Field) (Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("columnar: empty field name")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("columnar: duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return Schema(fields), nil
}

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Field returns the field with the given name and true, or a zero Field
// and false.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Index returns the ordinal position of the named field, or -1.
func (s Schema) Index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Equal reports whether two schemas have the same fields in the same
// order with identical types.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i].Name != o[i].Name || !s[i].Type.Equal(o[i].Type) {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
