package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTuple_SerializeDeserialize_RoundTrip(t *testing.T) {
	desc := NewTupleDesc(
		FieldDesc{Type: IntType, Name: "id"},
		FieldDesc{Type: StringType, Name: "name"},
		FieldDesc{Type: DoubleType, Name: "score"},
	)
	tup := NewTuple(desc)
	require.NoError(t, tup.SetField(0, IntField{Value: 42}))
	require.NoError(t, tup.SetField(1, StringField{Value: "hello"}))
	require.NoError(t, tup.SetField(2, DoubleField{Value: 3.5}))

	raw, err := tup.Serialize()
	require.NoError(t, err)
	require.Len(t, raw, desc.Len())

	out, err := DeserializeTuple(desc, raw)
	require.NoError(t, err)
	require.True(t, out.Field(0).Equals(IntField{Value: 42}))
	require.True(t, out.Field(1).Equals(StringField{Value: "hello"}))
	require.True(t, out.Field(2).Equals(DoubleField{Value: 3.5}))
}

func TestTuple_SetField_SchemaMismatch(t *testing.T) {
	desc := NewTupleDesc(FieldDesc{Type: IntType, Name: "id"})
	tup := NewTuple(desc)
	require.Error(t, tup.SetField(0, StringField{Value: "nope"}))
}

func TestFieldCompare_LikeIsEqualsForStringAndInt(t *testing.T) {
	require.True(t, StringField{Value: "abc"}.Compare(Like, StringField{Value: "abc"}))
	require.False(t, StringField{Value: "abc"}.Compare(Like, StringField{Value: "abd"}))
	require.True(t, IntField{Value: 5}.Compare(Like, IntField{Value: 5}))
}

func TestFieldCompare_DoubleLikePanics(t *testing.T) {
	require.Panics(t, func() {
		DoubleField{Value: 1.0}.Compare(Like, DoubleField{Value: 1.0})
	})
}

func TestFieldCompare_TypeMismatchPanics(t *testing.T) {
	require.Panics(t, func() {
		IntField{Value: 1}.Compare(Equals, StringField{Value: "1"})
	})
}

func TestTupleDesc_EqualsIgnoresNames(t *testing.T) {
	a := NewTupleDesc(FieldDesc{Type: IntType, Name: "a"}, FieldDesc{Type: StringType, Name: "b"})
	b := NewTupleDesc(FieldDesc{Type: IntType, Name: "x"}, FieldDesc{Type: StringType, Name: "y"})
	require.True(t, a.Equals(b))
}
