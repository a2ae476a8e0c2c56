package execution

import (
	"relcore/buffer"
	"relcore/types"
	"relcore/txn"
)

// Delete is symmetric to Insert: drains its child and deletes every tuple
// it produces from tableID through the buffer pool, using each tuple's own
// RecordID to locate it.
type Delete struct {
	base
	tid     txn.ID
	child   Operator
	tableID types.TableID
	bp      *buffer.BufferPool
	done    bool
}

// NewDelete builds a Delete of child's tuples from tableID for tid.
func NewDelete(tid txn.ID, child Operator, tableID types.TableID, bp *buffer.BufferPool) *Delete {
	return &Delete{tid: tid, child: child, tableID: tableID, bp: bp}
}

// TupleDesc is always a single INT "count" field.
func (del *Delete) TupleDesc() *types.TupleDesc { return countDesc }

// Open opens the child; deletion happens lazily on first fetchNext.
func (del *Delete) Open() error {
	if err := del.child.Open(); err != nil {
		return err
	}
	del.done = false
	del.openBase(del.fetchNext)
	return nil
}

func (del *Delete) fetchNext() (*types.Tuple, error) {
	if del.done {
		return nil, nil
	}
	del.done = true
	count := int32(0)
	for {
		has, err := del.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := del.child.Next()
		if err != nil {
			return nil, err
		}
		if err := del.bp.DeleteTuple(del.tid, del.tableID, t); err != nil {
			return nil, err
		}
		count++
	}
	result := types.NewTuple(countDesc)
	_ = result.SetField(0, types.IntField{Value: count})
	return result, nil
}

// HasNext reports whether the (sole) count tuple is still pending.
func (del *Delete) HasNext() (bool, error) { return del.hasNext() }

// Next returns the count tuple on its first call, then usage-errors.
func (del *Delete) Next() (*types.Tuple, error) { return del.next() }

// Rewind re-arms the one-shot delete and rewinds the child.
func (del *Delete) Rewind() error {
	if err := del.child.Rewind(); err != nil {
		return err
	}
	del.done = false
	del.hasBuffer = false
	del.buffered = nil
	return nil
}

// Close ends the operator and its child.
func (del *Delete) Close() {
	del.child.Close()
	del.closeBase()
}
