package execution

import (
	"relcore/buffer"
	"relcore/types"
	"relcore/txn"
)

var countDesc = types.NewTupleDesc(types.FieldDesc{Type: types.IntType, Name: "count"})

// Insert drains its child and inserts every tuple it produces into tableID
// through the buffer pool. fetchNext is one-shot: the first call drains the
// child and returns a single-field tuple holding the count; every call
// after that returns nil until Rewind.
type Insert struct {
	base
	tid     txn.ID
	child   Operator
	tableID types.TableID
	bp      *buffer.BufferPool
	done    bool
}

// NewInsert builds an Insert of child's tuples into tableID for tid.
func NewInsert(tid txn.ID, child Operator, tableID types.TableID, bp *buffer.BufferPool) *Insert {
	return &Insert{tid: tid, child: child, tableID: tableID, bp: bp}
}

// TupleDesc is always a single INT "count" field.
func (ins *Insert) TupleDesc() *types.TupleDesc { return countDesc }

// Open opens the child; insertion itself happens lazily on first fetchNext.
func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return err
	}
	ins.done = false
	ins.openBase(ins.fetchNext)
	return nil
}

func (ins *Insert) fetchNext() (*types.Tuple, error) {
	if ins.done {
		return nil, nil
	}
	ins.done = true
	count := int32(0)
	for {
		has, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if err := ins.bp.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			return nil, err
		}
		count++
	}
	result := types.NewTuple(countDesc)
	_ = result.SetField(0, types.IntField{Value: count})
	return result, nil
}

// HasNext reports whether the (sole) count tuple is still pending.
func (ins *Insert) HasNext() (bool, error) { return ins.hasNext() }

// Next returns the count tuple on its first call, then usage-errors.
func (ins *Insert) Next() (*types.Tuple, error) { return ins.next() }

// Rewind re-arms the one-shot insert and rewinds the child.
func (ins *Insert) Rewind() error {
	if err := ins.child.Rewind(); err != nil {
		return err
	}
	ins.done = false
	ins.hasBuffer = false
	ins.buffered = nil
	return nil
}

// Close ends the operator and its child.
func (ins *Insert) Close() {
	ins.child.Close()
	ins.closeBase()
}
