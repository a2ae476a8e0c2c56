// Package types implements the schema and row value model: field types,
// tagged field values, tuple descriptors, tuples, and the identifiers that
// locate a tuple on disk.
package types

import "fmt"

// Type is the closed set of field types a Tuple's columns may hold. Every
// Type has a fixed serialized width so a Tuple's byte length is statically
// known from its TupleDesc.
type Type uint8

const (
	IntType Type = iota
	StringType
	DoubleType
)

// StringLength is the fixed maximum byte length of a StringField's payload.
// Strings shorter than this are padded; longer strings are truncated to
// this length on serialization.
const StringLength = 128

// intFieldLen and doubleFieldLen are the on-disk sizes of INT and DOUBLE
// fields; a STRING field is a stringLenPrefixLen-byte length prefix followed
// by StringLength padded bytes.
const (
	intFieldLen    = 4
	doubleFieldLen = 8
	stringLenPrefixLen = 4
)

// Len returns the serialized byte width of a field of this type.
func (t Type) Len() int {
	switch t {
	case IntType:
		return intFieldLen
	case StringType:
		return stringLenPrefixLen + StringLength
	case DoubleType:
		return doubleFieldLen
	default:
		panic(fmt.Sprintf("unknown type %d", t))
	}
}

func (t Type) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	case DoubleType:
		return "double"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}
