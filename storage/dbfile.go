package storage

import "relcore/types"

// DbFile is anything the catalog can register and the buffer pool can read
// pages from and route writes through: today only *HeapFile. The catalog
// deals only in this interface; buffer, execution and stats type-assert to
// *HeapFile for tuple inserts, deletes and scans.
type DbFile interface {
	ID() types.TableID
	TupleDesc() *types.TupleDesc
	ReadPage(pid types.PageID) (*HeapPage, error)
	WritePage(p *HeapPage) error
	NumPages() int
}
