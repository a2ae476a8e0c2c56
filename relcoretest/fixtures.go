// Package relcoretest provides shared test fixtures: a scratch table file
// plus a wired catalog/buffer pool, shared by the execution and stats
// tests. The storage and buffer tests build their own setup, since this
// package imports both of them.
package relcoretest

import (
	"os"
	"testing"

	"relcore/buffer"
	"relcore/catalog"
	"relcore/storage"
	"relcore/types"
)

// IntStringDesc is a (INT, STRING) schema used throughout the test suite.
func IntStringDesc() *types.TupleDesc {
	return types.NewTupleDesc(
		types.FieldDesc{Type: types.IntType, Name: "id"},
		types.FieldDesc{Type: types.StringType, Name: "name"},
	)
}

// Fixture bundles a temp-file table with a catalog and buffer pool wired
// to it.
type Fixture struct {
	T       *testing.T
	Desc    *types.TupleDesc
	File    *storage.HeapFile
	Catalog *catalog.InMemory
	Pool    *buffer.BufferPool
}

// NewFixture creates a temp-file-backed table of desc, registers it in a
// fresh catalog under name, and wires a buffer pool of the given capacity
// (DefaultPages if capacity <= 0) over it. The table file is removed on
// test cleanup.
func NewFixture(t *testing.T, name string, desc *types.TupleDesc, capacity int) *Fixture {
	t.Helper()
	f, err := os.CreateTemp("", "relcore-*.table")
	if err != nil {
		t.Fatalf("create temp table file: %v", err)
	}
	path := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(path) })

	hf, err := storage.Open(path, desc)
	if err != nil {
		t.Fatalf("open heap file: %v", err)
	}
	t.Cleanup(func() { hf.Close() })

	cat := catalog.NewInMemory()
	cat.AddTable(hf, name)
	pool := buffer.New(capacity, cat)

	return &Fixture{T: t, Desc: desc, File: hf, Catalog: cat, Pool: pool}
}

// NewTuple builds a tuple of the fixture's schema from (id, name).
func (fx *Fixture) NewTuple(id int32, name string) *types.Tuple {
	t := types.NewTuple(fx.Desc)
	_ = t.SetField(0, types.IntField{Value: id})
	_ = t.SetField(1, types.StringField{Value: name})
	return t
}
