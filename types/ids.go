package types

import (
	"hash/fnv"
	"path/filepath"
)

// TableID is a stable hash of a HeapFile's canonical on-disk path.
type TableID uint64

// TableIDFromPath derives the stable TableID of a table file from its path.
func TableIDFromPath(path string) TableID {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(abs))
	return TableID(h.Sum64())
}

// PageID identifies a page within a table by (tableID, pageNumber).
type PageID struct {
	TableID    TableID
	PageNumber int
}

// PageNo is a convenience wrapper returning the page number.
func (p PageID) PageNo() int { return p.PageNumber }

// RecordID locates a Tuple within a page by its slot index.
type RecordID struct {
	PageID PageID
	Slot   int
}
