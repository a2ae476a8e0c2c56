package types

import (
	"bytes"
	"fmt"
)

// Tuple is a fixed-arity row: a vector of Field values matching a
// TupleDesc, plus a mutable RecordID recording where it currently lives.
// Field types always match the owning TupleDesc.
type Tuple struct {
	desc   *TupleDesc
	fields []Field
	rid    RecordID
}

// NewTuple allocates an empty Tuple of the given schema; fields must be set
// with SetField before the Tuple is used.
func NewTuple(desc *TupleDesc) *Tuple {
	return &Tuple{desc: desc, fields: make([]Field, desc.NumFields())}
}

// NewTupleWithFields builds a Tuple from already-constructed field values,
// validating each one's type against desc.
func NewTupleWithFields(desc *TupleDesc, fields []Field) (*Tuple, error) {
	if len(fields) != desc.NumFields() {
		return nil, fmt.Errorf("schema mismatch: expected %d fields, got %d", desc.NumFields(), len(fields))
	}
	for i, f := range fields {
		if f.Type() != desc.FieldType(i) {
			return nil, fmt.Errorf("schema mismatch: field %d is %s, want %s", i, f.Type(), desc.FieldType(i))
		}
	}
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return &Tuple{desc: desc, fields: cp}, nil
}

// TupleDesc returns this tuple's schema.
func (t *Tuple) TupleDesc() *TupleDesc { return t.desc }

// Field returns the i-th field value.
func (t *Tuple) Field(i int) Field { return t.fields[i] }

// SetField sets the i-th field value, validating it against the schema.
func (t *Tuple) SetField(i int, f Field) error {
	if f.Type() != t.desc.FieldType(i) {
		return fmt.Errorf("schema mismatch: field %d is %s, want %s", i, f.Type(), t.desc.FieldType(i))
	}
	t.fields[i] = f
	return nil
}

// RecordID returns the tuple's current location.
func (t *Tuple) RecordID() RecordID { return t.rid }

// SetRecordID updates the tuple's location; called by HeapPage on insert.
func (t *Tuple) SetRecordID(rid RecordID) { t.rid = rid }

// Serialize writes the tuple's fields, in schema order, to a fixed-width
// byte slice of length desc.Len().
func (t *Tuple) Serialize() ([]byte, error) {
	buf := &bytes.Buffer{}
	for _, f := range t.fields {
		if err := f.Serialize(buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DeserializeTuple parses a tuple record previously written by Serialize.
func DeserializeTuple(desc *TupleDesc, data []byte) (*Tuple, error) {
	r := bytes.NewReader(data)
	fields := make([]Field, desc.NumFields())
	for i := 0; i < desc.NumFields(); i++ {
		var (
			f   Field
			err error
		)
		switch desc.FieldType(i) {
		case IntType:
			f, err = ReadIntField(r)
		case StringType:
			f, err = ReadStringField(r)
		case DoubleType:
			f, err = ReadDoubleField(r)
		default:
			return nil, fmt.Errorf("unknown field type %v", desc.FieldType(i))
		}
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return &Tuple{desc: desc, fields: fields}, nil
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		parts[i] = f.String()
	}
	return fmt.Sprint(parts)
}
