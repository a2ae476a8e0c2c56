package storage

import (
	"relcore/dberr"
	"relcore/txn"
	"relcore/types"
)

// HeapPage is a page's in-memory representation: a header bitmap of
// ceil(numSlots/8) bytes (bit i set iff slot i is live), followed by
// numSlots fixed-width tuple records. Byte layout is exactly reproduced by
// GetPageData so bytes -> HeapPage -> bytes round-trips for clean pages.
type HeapPage struct {
	id        types.PageID
	desc      *types.TupleDesc
	tupleLen  int
	numSlots  int
	headerLen int
	data      []byte // full PageSize buffer: header bitmap, then slot records

	dirty   bool
	dirtyBy txn.ID
}

// NumSlots returns floor((pageSizeBytes*8) / (tupleWidth*8 + 1)): the
// largest slot count whose header bitmap plus tuple records still fit in
// one page.
func NumSlots(tupleLen int) int {
	return (PageSize * 8) / (tupleLen*8 + 1)
}

func headerLen(numSlots int) int {
	return (numSlots + 7) / 8
}

// NewHeapPage parses raw, well-formed page bytes into a HeapPage. It never
// fails for well-formed pages of the configured PageSize.
func NewHeapPage(pid types.PageID, desc *types.TupleDesc, raw []byte) (*HeapPage, error) {
	if len(raw) != PageSize {
		return nil, dberr.NewIoError("NewHeapPage", errInvalidPageLen(len(raw)))
	}
	tupleLen := desc.Len()
	numSlots := NumSlots(tupleLen)
	hp := &HeapPage{
		id:        pid,
		desc:      desc,
		tupleLen:  tupleLen,
		numSlots:  numSlots,
		headerLen: headerLen(numSlots),
		data:      append([]byte(nil), raw...),
	}
	return hp, nil
}

// CreateEmptyPageData returns a PageSize-byte all-zero page (an all-zero
// header bitmap means every slot is unused).
func CreateEmptyPageData() []byte {
	return make([]byte, PageSize)
}

// ID returns this page's identity.
func (hp *HeapPage) ID() types.PageID { return hp.id }

// TupleDesc returns the schema tuples on this page conform to.
func (hp *HeapPage) TupleDesc() *types.TupleDesc { return hp.desc }

// NumSlots returns the total slot count computed from page size and tuple width.
func (hp *HeapPage) NumSlots() int { return hp.numSlots }

func (hp *HeapPage) slotUsed(i int) bool {
	b := hp.data[i/8]
	return b&(1<<uint(i%8)) != 0
}

func (hp *HeapPage) setSlotUsed(i int, used bool) {
	byteIdx := i / 8
	mask := byte(1 << uint(i%8))
	if used {
		hp.data[byteIdx] |= mask
	} else {
		hp.data[byteIdx] &^= mask
	}
}

func (hp *HeapPage) slotOffset(i int) int {
	return hp.headerLen + i*hp.tupleLen
}

// GetNumUnusedSlots returns the count of zero bits in the header bitmap.
func (hp *HeapPage) GetNumUnusedSlots() int {
	used := 0
	for i := 0; i < hp.numSlots; i++ {
		if hp.slotUsed(i) {
			used++
		}
	}
	return hp.numSlots - used
}

// InsertTuple finds the lowest-indexed unused slot, marks it used, and
// stores t there with its RecordID set to (pid, slot). Fails with
// ErrPageFull if the page has no free slot, or ErrSchemaMismatch if t's
// schema does not match the page's.
func (hp *HeapPage) InsertTuple(t *types.Tuple) error {
	if !t.TupleDesc().Equals(hp.desc) {
		return dberr.ErrSchemaMismatch
	}
	for i := 0; i < hp.numSlots; i++ {
		if hp.slotUsed(i) {
			continue
		}
		raw, err := t.Serialize()
		if err != nil {
			return err
		}
		off := hp.slotOffset(i)
		copy(hp.data[off:off+hp.tupleLen], raw)
		hp.setSlotUsed(i, true)
		t.SetRecordID(types.RecordID{PageID: hp.id, Slot: i})
		return nil
	}
	return dberr.ErrPageFull
}

// DeleteTuple validates t.RecordID and clears its slot's bitmap bit. It does
// not zero the tuple bytes: deleted slots retain arbitrary bytes but are
// never read.
func (hp *HeapPage) DeleteTuple(t *types.Tuple) error {
	rid := t.RecordID()
	if rid.PageID != hp.id {
		return dberr.ErrPageNotFound
	}
	if rid.Slot < 0 || rid.Slot >= hp.numSlots || !hp.slotUsed(rid.Slot) {
		return dberr.ErrPageNotFound
	}
	hp.setSlotUsed(rid.Slot, false)
	return nil
}

// MarkDirty sets or clears the page's dirty flag and, when dirtying, the
// transaction that last wrote it.
func (hp *HeapPage) MarkDirty(dirty bool, tid txn.ID) {
	hp.dirty = dirty
	if dirty {
		hp.dirtyBy = tid
	}
}

// IsDirty reports whether the page is dirty and, if so, by which transaction.
func (hp *HeapPage) IsDirty() (txn.ID, bool) {
	if !hp.dirty {
		return 0, false
	}
	return hp.dirtyBy, true
}

// GetPageData serializes the page back to exactly PageSize bytes.
func (hp *HeapPage) GetPageData() []byte {
	return append([]byte(nil), hp.data...)
}

// Iterate calls fn for every tuple on the page in ascending slot order,
// stopping early if fn returns false.
func (hp *HeapPage) Iterate(fn func(t *types.Tuple) bool) error {
	for i := 0; i < hp.numSlots; i++ {
		if !hp.slotUsed(i) {
			continue
		}
		off := hp.slotOffset(i)
		t, err := types.DeserializeTuple(hp.desc, hp.data[off:off+hp.tupleLen])
		if err != nil {
			return err
		}
		t.SetRecordID(types.RecordID{PageID: hp.id, Slot: i})
		if !fn(t) {
			return nil
		}
	}
	return nil
}

type invalidPageLenError struct{ n int }

func (e invalidPageLenError) Error() string { return "page data is not PageSize bytes" }

func errInvalidPageLen(n int) error { return invalidPageLenError{n: n} }
