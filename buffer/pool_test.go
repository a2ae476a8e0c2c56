package buffer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"relcore/catalog"
	"relcore/dberr"
	"relcore/storage"
	"relcore/txn"
	"relcore/types"
)

func desc() *types.TupleDesc {
	return types.NewTupleDesc(
		types.FieldDesc{Type: types.IntType, Name: "id"},
		types.FieldDesc{Type: types.StringType, Name: "name"},
	)
}

func openTable(t *testing.T) *storage.HeapFile {
	t.Helper()
	f, err := os.CreateTemp("", "relcore-buffer-*.table")
	require.NoError(t, err)
	path := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(path) })

	hf, err := storage.Open(path, desc())
	require.NoError(t, err)
	t.Cleanup(func() { hf.Close() })
	return hf
}

func tuple(id int32, name string) *types.Tuple {
	t := types.NewTuple(desc())
	_ = t.SetField(0, types.IntField{Value: id})
	_ = t.SetField(1, types.StringField{Value: name})
	return t
}

func TestBufferPool_InsertAndScanRoundTrip(t *testing.T) {
	hf := openTable(t)
	cat := catalog.NewInMemory()
	cat.AddTable(hf, "t")
	pool := New(DefaultPages, cat)

	tid := txn.New()
	for i := int32(1); i <= 3; i++ {
		require.NoError(t, pool.InsertTuple(tid, hf.ID(), tuple(i, "row")))
	}
	require.NoError(t, pool.TransactionComplete(tid, true))

	scanTid := txn.New()
	it := storage.NewHeapFileIterator(scanTid, pool, hf)
	require.NoError(t, it.Open())
	found := map[int32]bool{}
	for {
		has, err := it.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		tup, err := it.Next()
		require.NoError(t, err)
		found[tup.Field(0).(types.IntField).Value] = true
	}
	require.Equal(t, map[int32]bool{1: true, 2: true, 3: true}, found)
}

func TestBufferPool_EvictionRefusesDirtyOnly(t *testing.T) {
	hfA := openTable(t)
	hfB := openTable(t)
	hfC := openTable(t)
	cat := catalog.NewInMemory()
	cat.AddTable(hfA, "a")
	cat.AddTable(hfB, "b")
	cat.AddTable(hfC, "c")
	pool := New(2, cat)

	t1 := txn.New()
	require.NoError(t, pool.InsertTuple(t1, hfA.ID(), tuple(1, "a")))
	require.NoError(t, pool.InsertTuple(t1, hfB.ID(), tuple(1, "b")))

	_, err := pool.GetPage(t1, types.PageID{TableID: hfC.ID(), PageNumber: 0}, txn.ReadOnly)
	require.ErrorIs(t, err, dberr.ErrEvictionImpossible)
}

func TestBufferPool_TransactionComplete_AbortDiscardsDirtyPages(t *testing.T) {
	hf := openTable(t)
	cat := catalog.NewInMemory()
	cat.AddTable(hf, "t")
	pool := New(DefaultPages, cat)

	tid := txn.New()
	require.NoError(t, pool.InsertTuple(tid, hf.ID(), tuple(1, "a")))
	require.NoError(t, pool.TransactionComplete(tid, false))

	scanTid := txn.New()
	it := storage.NewHeapFileIterator(scanTid, pool, hf)
	require.NoError(t, it.Open())
	has, err := it.HasNext()
	require.NoError(t, err)
	require.False(t, has, "aborted insert must not be durable")
}

func TestBufferPool_CommitDurability(t *testing.T) {
	f, err := os.CreateTemp("", "relcore-durability-*.table")
	require.NoError(t, err)
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	hf, err := storage.Open(path, desc())
	require.NoError(t, err)
	cat := catalog.NewInMemory()
	cat.AddTable(hf, "t")
	pool := New(DefaultPages, cat)

	tid := txn.New()
	require.NoError(t, pool.InsertTuple(tid, hf.ID(), tuple(42, "answer")))
	require.NoError(t, pool.TransactionComplete(tid, true))
	require.NoError(t, hf.Close())

	reopened, err := storage.Open(path, desc())
	require.NoError(t, err)
	defer reopened.Close()
	cat2 := catalog.NewInMemory()
	cat2.AddTable(reopened, "t")
	pool2 := New(DefaultPages, cat2)

	scanTid := txn.New()
	it := storage.NewHeapFileIterator(scanTid, pool2, reopened)
	require.NoError(t, it.Open())
	has, err := it.HasNext()
	require.NoError(t, err)
	require.True(t, has)
	tup, err := it.Next()
	require.NoError(t, err)
	require.True(t, tup.Field(0).Equals(types.IntField{Value: 42}))
}

func TestInsertTuple_NewPageDoesNotExceedCapacity(t *testing.T) {
	hf := openTable(t)
	cat := catalog.NewInMemory()
	cat.AddTable(hf, "t")
	pool := New(1, cat)

	slots := storage.NumSlots(desc().Len())
	t1 := txn.New()
	for i := int32(0); i < int32(slots); i++ {
		require.NoError(t, pool.InsertTuple(t1, hf.ID(), tuple(i, "x")))
	}
	require.NoError(t, pool.TransactionComplete(t1, true))
	require.LessOrEqual(t, len(pool.pages), pool.cap)

	// Page 0 is now full and clean; inserting once more forces a fresh
	// page 1, which must evict page 0 rather than exceed capacity.
	t2 := txn.New()
	require.NoError(t, pool.InsertTuple(t2, hf.ID(), tuple(int32(slots), "overflow")))
	require.LessOrEqual(t, len(pool.pages), pool.cap)
}
