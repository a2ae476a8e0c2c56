package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"relcore/dberr"
	"relcore/types"
)

func testDesc() *types.TupleDesc {
	return types.NewTupleDesc(
		types.FieldDesc{Type: types.IntType, Name: "id"},
		types.FieldDesc{Type: types.StringType, Name: "name"},
	)
}

func TestHeapPage_InsertDeleteAndSlotAccounting(t *testing.T) {
	desc := testDesc()
	pid := types.PageID{TableID: 1, PageNumber: 0}
	hp, err := NewHeapPage(pid, desc, CreateEmptyPageData())
	require.NoError(t, err)

	total := hp.NumSlots()
	require.Equal(t, total, hp.GetNumUnusedSlots())

	tup := types.NewTuple(desc)
	require.NoError(t, tup.SetField(0, types.IntField{Value: 1}))
	require.NoError(t, tup.SetField(1, types.StringField{Value: "a"}))
	require.NoError(t, hp.InsertTuple(tup))
	require.Equal(t, total-1, hp.GetNumUnusedSlots())
	require.Equal(t, 0, tup.RecordID().Slot)

	require.NoError(t, hp.DeleteTuple(tup))
	require.Equal(t, total, hp.GetNumUnusedSlots())
}

func TestHeapPage_InsertFullPage(t *testing.T) {
	desc := testDesc()
	pid := types.PageID{TableID: 1, PageNumber: 0}
	hp, err := NewHeapPage(pid, desc, CreateEmptyPageData())
	require.NoError(t, err)

	for i := 0; i < hp.NumSlots(); i++ {
		tup := types.NewTuple(desc)
		require.NoError(t, tup.SetField(0, types.IntField{Value: int32(i)}))
		require.NoError(t, tup.SetField(1, types.StringField{Value: "x"}))
		require.NoError(t, hp.InsertTuple(tup))
	}
	overflow := types.NewTuple(desc)
	require.NoError(t, overflow.SetField(0, types.IntField{Value: 999}))
	require.NoError(t, overflow.SetField(1, types.StringField{Value: "y"}))
	require.ErrorIs(t, hp.InsertTuple(overflow), dberr.ErrPageFull)
}

func TestHeapPage_GetPageData_RoundTrip(t *testing.T) {
	desc := testDesc()
	pid := types.PageID{TableID: 1, PageNumber: 0}
	hp, err := NewHeapPage(pid, desc, CreateEmptyPageData())
	require.NoError(t, err)

	tup := types.NewTuple(desc)
	require.NoError(t, tup.SetField(0, types.IntField{Value: 7}))
	require.NoError(t, tup.SetField(1, types.StringField{Value: "z"}))
	require.NoError(t, hp.InsertTuple(tup))

	bytes := hp.GetPageData()
	require.Len(t, bytes, PageSize)

	reparsed, err := NewHeapPage(pid, desc, bytes)
	require.NoError(t, err)
	require.Equal(t, bytes, reparsed.GetPageData())

	var found []*types.Tuple
	require.NoError(t, reparsed.Iterate(func(t *types.Tuple) bool {
		found = append(found, t)
		return true
	}))
	require.Len(t, found, 1)
	require.True(t, found[0].Field(0).Equals(types.IntField{Value: 7}))
}
