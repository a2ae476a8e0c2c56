package storage

import (
	"io"
	"os"
	"sync"

	"relcore/dberr"
	"relcore/txn"
	"relcore/types"
)

// HeapFile is a table backed by one OS file: an unordered sequence of
// fixed-size HeapPages. Its tableId is a stable hash of the file's
// canonical path, so the same file always maps to the same TableID across
// process restarts.
type HeapFile struct {
	id   types.TableID
	desc *types.TupleDesc
	path string

	mu   sync.Mutex
	file *os.File

	// nextPageHint tracks the page count implied by fresh pages InsertTuple
	// has handed to the buffer pool but that may not be flushed to disk
	// yet, so successive inserts in the same uncommitted transaction don't
	// all target the same new page index: while pages are pending, this
	// hint, not the disk file length alone, decides the table's page count.
	nextPageHint int
}

// Open opens (creating if absent) the table file at path with the given
// schema.
func Open(path string, desc *types.TupleDesc) (*HeapFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, dberr.NewIoError("Open", err)
	}
	return &HeapFile{
		id:   types.TableIDFromPath(path),
		desc: desc,
		path: path,
		file: f,
	}, nil
}

// ID returns the table's stable identifier.
func (hf *HeapFile) ID() types.TableID { return hf.id }

// TupleDesc returns the table's schema.
func (hf *HeapFile) TupleDesc() *types.TupleDesc { return hf.desc }

// NumPages returns ceil(fileLengthBytes / PageSize), or nextPageHint if
// that is larger (see the field comment above).
func (hf *HeapFile) NumPages() int {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	info, err := hf.file.Stat()
	diskPages := 0
	if err == nil {
		diskPages = int((info.Size() + PageSize - 1) / PageSize)
	}
	if hf.nextPageHint > diskPages {
		return hf.nextPageHint
	}
	return diskPages
}

// ReadPage reads the raw bytes of pid's page number from disk and parses it.
// It fails with ErrPageNotFound if the page number is not below NumPages.
func (hf *HeapFile) ReadPage(pid types.PageID) (*HeapPage, error) {
	if pid.PageNumber < 0 || pid.PageNumber >= hf.NumPages() {
		return nil, dberr.ErrPageNotFound
	}
	hf.mu.Lock()
	defer hf.mu.Unlock()

	buf := make([]byte, PageSize)
	off := int64(pid.PageNumber) * PageSize
	if _, err := hf.file.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, dberr.NewIoError("ReadPage", err)
	}
	return NewHeapPage(pid, hf.desc, buf)
}

// WritePage flushes p's current bytes to its page number's offset,
// extending the file if p is the first write past the current EOF.
func (hf *HeapFile) WritePage(p *HeapPage) error {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	off := int64(p.ID().PageNumber) * PageSize
	if _, err := hf.file.WriteAt(p.GetPageData(), off); err != nil {
		return dberr.NewIoError("WritePage", err)
	}
	return nil
}

// InsertTuple scans pages from highest index to lowest looking for a free
// slot, upgrading the READ lock to WRITE on the first page with room; it
// sheds READ locks along the way on pages the transaction did not already
// hold and that turned out full. If no existing page has room, it builds
// (but does not itself persist or register) a fresh empty page at the next
// index — the caller (BufferPool) installs and locks it.
func (hf *HeapFile) InsertTuple(tid txn.ID, pp PagePool, t *types.Tuple) ([]*HeapPage, error) {
	numPages := hf.NumPages()
	for i := numPages - 1; i >= 0; i-- {
		pid := types.PageID{TableID: hf.id, PageNumber: i}
		alreadyHeld := pp.HoldsLock(tid, pid)

		page, err := pp.GetPage(tid, pid, txn.ReadOnly)
		if err != nil {
			return nil, err
		}
		if page.GetNumUnusedSlots() == 0 {
			if !alreadyHeld {
				pp.UnsafeReleasePage(tid, pid)
			}
			continue
		}

		wpage, err := pp.GetPage(tid, pid, txn.ReadWrite)
		if err != nil {
			return nil, err
		}
		if err := wpage.InsertTuple(t); err != nil {
			return nil, err
		}
		wpage.MarkDirty(true, tid)
		return []*HeapPage{wpage}, nil
	}

	newPid := types.PageID{TableID: hf.id, PageNumber: numPages}
	newPage, err := NewHeapPage(newPid, hf.desc, CreateEmptyPageData())
	if err != nil {
		return nil, err
	}
	if err := newPage.InsertTuple(t); err != nil {
		return nil, err
	}
	newPage.MarkDirty(true, tid)

	hf.mu.Lock()
	if numPages+1 > hf.nextPageHint {
		hf.nextPageHint = numPages + 1
	}
	hf.mu.Unlock()

	return []*HeapPage{newPage}, nil
}

// DeleteTuple fetches t's page under a WRITE lock and clears its slot.
func (hf *HeapFile) DeleteTuple(tid txn.ID, pp PagePool, t *types.Tuple) (*HeapPage, error) {
	pid := t.RecordID().PageID
	page, err := pp.GetPage(tid, pid, txn.ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := page.DeleteTuple(t); err != nil {
		return nil, err
	}
	page.MarkDirty(true, tid)
	return page, nil
}

// Close releases the underlying OS file handle.
func (hf *HeapFile) Close() error {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.file.Close()
}

// HeapFileIterator iterates over every tuple in a HeapFile, in page order
// then slot order, fetching each page through the buffer pool under a READ
// lock so scans obey two-phase locking.
type HeapFileIterator struct {
	tid txn.ID
	pp  PagePool
	hf  *HeapFile

	pageNum int
	buf     []*types.Tuple
	pos     int
	opened  bool
}

// NewHeapFileIterator builds an iterator over hf's tuples for transaction tid.
func NewHeapFileIterator(tid txn.ID, pp PagePool, hf *HeapFile) *HeapFileIterator {
	return &HeapFileIterator{tid: tid, pp: pp, hf: hf}
}

// Open (re)positions the iterator at the first tuple of the first page.
func (it *HeapFileIterator) Open() error {
	it.pageNum = 0
	it.buf = nil
	it.pos = 0
	it.opened = true
	return it.loadPage()
}

// Rewind returns the iterator to the first tuple without re-fetching locks
// it already holds.
func (it *HeapFileIterator) Rewind() error {
	return it.Open()
}

// Close marks the iterator unusable until reopened.
func (it *HeapFileIterator) Close() {
	it.opened = false
	it.buf = nil
}

// loadPage buffers every tuple of the current page number, skipping
// forward over any fully-scanned or empty pages.
func (it *HeapFileIterator) loadPage() error {
	for it.pageNum < it.hf.NumPages() {
		pid := types.PageID{TableID: it.hf.id, PageNumber: it.pageNum}
		page, err := it.pp.GetPage(it.tid, pid, txn.ReadOnly)
		if err != nil {
			return err
		}
		var tuples []*types.Tuple
		_ = page.Iterate(func(t *types.Tuple) bool {
			tuples = append(tuples, t)
			return true
		})
		it.pos = 0
		it.buf = tuples
		if len(tuples) > 0 {
			return nil
		}
		it.pageNum++
	}
	it.buf = nil
	return nil
}

// HasNext reports whether Next will succeed.
func (it *HeapFileIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberr.ErrUsageError
	}
	if it.buf != nil && it.pos < len(it.buf) {
		return true, nil
	}
	it.pageNum++
	if err := it.loadPage(); err != nil {
		return false, err
	}
	return it.buf != nil && it.pos < len(it.buf), nil
}

// Next returns the next tuple, advancing the cursor.
func (it *HeapFileIterator) Next() (*types.Tuple, error) {
	has, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, dberr.ErrUsageError
	}
	t := it.buf[it.pos]
	it.pos++
	return t, nil
}
