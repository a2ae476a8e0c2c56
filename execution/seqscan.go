package execution

import (
	"relcore/buffer"
	"relcore/catalog"
	"relcore/storage"
	"relcore/txn"
	"relcore/types"
)

// SeqScan pulls every tuple of a table through the buffer pool (acquiring
// READ locks page by page), optionally filtered by a Predicate. It is the
// leaf operator every pipeline in this core is built from.
type SeqScan struct {
	base
	tid     txn.ID
	tableID types.TableID
	bp      *buffer.BufferPool
	cat     catalog.Catalog
	pred    *Predicate

	desc *types.TupleDesc
	it   *storage.HeapFileIterator
}

// NewSeqScan builds a scan of tableID for transaction tid through bp/cat.
// pred may be nil for an unfiltered scan.
func NewSeqScan(tid txn.ID, tableID types.TableID, bp *buffer.BufferPool, cat catalog.Catalog, pred *Predicate) (*SeqScan, error) {
	file, err := cat.GetDatabaseFile(tableID)
	if err != nil {
		return nil, err
	}
	return &SeqScan{
		tid:     tid,
		tableID: tableID,
		bp:      bp,
		cat:     cat,
		pred:    pred,
		desc:    file.TupleDesc(),
	}, nil
}

// TupleDesc returns the scanned table's schema.
func (s *SeqScan) TupleDesc() *types.TupleDesc { return s.desc }

// Open positions the scan at the table's first tuple.
func (s *SeqScan) Open() error {
	file, err := s.cat.GetDatabaseFile(s.tableID)
	if err != nil {
		return err
	}
	hf := file.(*storage.HeapFile)
	s.it = storage.NewHeapFileIterator(s.tid, s.bp, hf)
	if err := s.it.Open(); err != nil {
		return err
	}
	s.openBase(s.fetchNext)
	return nil
}

func (s *SeqScan) fetchNext() (*types.Tuple, error) {
	for {
		has, err := s.it.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, nil
		}
		t, err := s.it.Next()
		if err != nil {
			return nil, err
		}
		if s.pred == nil || s.pred.Matches(t) {
			return t, nil
		}
	}
}

// HasNext reports whether another (possibly filtered) tuple remains.
func (s *SeqScan) HasNext() (bool, error) { return s.hasNext() }

// Next returns the next matching tuple.
func (s *SeqScan) Next() (*types.Tuple, error) { return s.next() }

// Rewind restarts the scan at the table's first page.
func (s *SeqScan) Rewind() error {
	if err := s.it.Rewind(); err != nil {
		return err
	}
	s.hasBuffer = false
	s.buffered = nil
	return nil
}

// Close ends the scan; further calls are usage errors until reopened.
func (s *SeqScan) Close() {
	if s.it != nil {
		s.it.Close()
	}
	s.closeBase()
}
