package vectab

import (
	"fmt"

	"github.com/hupe1980/vectab/columnar"
)

// UnsupportedInputError indicates that the input data is not one of the
// recognized variants (Rows, VectorMap, Frame, Canonical).
type UnsupportedInputError struct {
	Value any
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("unsupported input type: %T", e.Value)
}

// MissingVectorColumnError indicates that the designated vector column is
// absent from the input.
type MissingVectorColumnError struct {
	Name   string
	Schema columnar.Schema
}

func (e *MissingVectorColumnError) Error() string {
	return fmt.Sprintf("missing vector column %q in schema %s", e.Name, e.Schema)
}

// UnsupportedVectorColumnTypeError indicates that the vector column's
// underlying type cannot be normalized into a fixed-size float32 list.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type UnsupportedVectorColumnTypeError struct {
	Name  string
	Type  columnar.DataType
	cause error
}

func (e *UnsupportedVectorColumnTypeError) Error() string {
	return fmt.Sprintf("unsupported vector column type: column %q is %s", e.Name, e.Type)
}

func (e *UnsupportedVectorColumnTypeError) Unwrap() error { return e.cause }

// SchemaCastError indicates that a target schema field is missing from the
// input, or that a column could not be cast to its declared type.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type SchemaCastError struct {
	Field string
	From  columnar.DataType
	To    columnar.DataType
	cause error
}

func (e *SchemaCastError) Error() string {
	if e.From.ID() == columnar.TypeInvalid {
		return fmt.Sprintf("schema cast: field %q missing from input", e.Field)
	}
	return fmt.Sprintf("schema cast: column %q: cannot cast %s to %s", e.Field, e.From, e.To)
}

func (e *SchemaCastError) Unwrap() error { return e.cause }

// UnsupportedQueryTypeError indicates that a search query is not a
// recognized numeric sequence.
type UnsupportedQueryTypeError struct {
	Value any
}

func (e *UnsupportedQueryTypeError) Error() string {
	return fmt.Sprintf("unsupported query type: %T", e.Value)
}
