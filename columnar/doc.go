// Package columnar implements the canonical in-memory table representation
// used throughout vectab: an ordered sequence of named, typed, equal-length
// columns. Tables are immutable once constructed; mutating operations such
// as SetColumn return a new Table sharing unchanged columns.
//
// The type system is a closed set: Int64, Float32, Float64, String, Bool,
// plus variable-length lists and fixed-size lists of those. Fixed-size
// lists are the on-disk representation for embedding columns.
package columnar
