package types

import "strings"

// FieldDesc is one column of a TupleDesc: a Type and an optional display
// name. Names are not considered for TupleDesc equality.
type FieldDesc struct {
	Type Type
	Name string
}

// TupleDesc is the ordered, fixed-arity schema of a Tuple.
type TupleDesc struct {
	fields []FieldDesc
}

// NewTupleDesc builds a TupleDesc from the given field descriptors.
func NewTupleDesc(fields ...FieldDesc) *TupleDesc {
	cp := make([]FieldDesc, len(fields))
	copy(cp, fields)
	return &TupleDesc{fields: cp}
}

// NumFields returns the arity of the schema.
func (d *TupleDesc) NumFields() int {
	return len(d.fields)
}

// FieldType returns the type of the i-th column.
func (d *TupleDesc) FieldType(i int) Type {
	return d.fields[i].Type
}

// FieldName returns the name of the i-th column.
func (d *TupleDesc) FieldName(i int) string {
	return d.fields[i].Name
}

// Fields returns the ordered field descriptors.
func (d *TupleDesc) Fields() []FieldDesc {
	return d.fields
}

// IndexOf returns the 0-based index of the column with the given name, or -1.
func (d *TupleDesc) IndexOf(name string) int {
	for i, f := range d.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Len returns the byte length of a serialized Tuple of this schema.
func (d *TupleDesc) Len() int {
	total := 0
	for _, f := range d.fields {
		total += f.Type.Len()
	}
	return total
}

// Equals compares two schemas by their type sequence only; names are ignored.
func (d *TupleDesc) Equals(other *TupleDesc) bool {
	if other == nil || len(d.fields) != len(other.fields) {
		return false
	}
	for i := range d.fields {
		if d.fields[i].Type != other.fields[i].Type {
			return false
		}
	}
	return true
}

// Merge concatenates two schemas, used by joins (not exercised by this core
// but kept for API completeness the way TupleDesc.merge is in the original).
func (d *TupleDesc) Merge(other *TupleDesc) *TupleDesc {
	merged := make([]FieldDesc, 0, len(d.fields)+len(other.fields))
	merged = append(merged, d.fields...)
	merged = append(merged, other.fields...)
	return &TupleDesc{fields: merged}
}

func (d *TupleDesc) String() string {
	parts := make([]string, len(d.fields))
	for i, f := range d.fields {
		parts[i] = f.Type.String() + "(" + f.Name + ")"
	}
	return strings.Join(parts, ", ")
}
