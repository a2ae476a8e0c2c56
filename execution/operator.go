// Package execution implements the pull-based operator pipeline: scan,
// predicate filtering, aggregation, insert, and delete, grounded on
// helindb's execution/executors package (base_executor.go's
// open/next/close discipline) generalized to an
// open/hasNext/next/rewind/close/getTupleDesc protocol.
package execution

import (
	"relcore/dberr"
	"relcore/types"
)

// Operator is the uniform pull protocol every operator in the pipeline
// conforms to. Open must precede use: HasNext and Next return
// ErrUsageError when called before Open or after Close. Rewind, Close and
// TupleDesc do not check whether the operator is open.
type Operator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*types.Tuple, error)
	Rewind() error
	Close()
	TupleDesc() *types.TupleDesc
}

// base implements the open/close bookkeeping shared by every concrete
// operator: it tracks whether the operator is open and buffers one
// look-ahead tuple so HasNext can be answered without consuming Next's
// tuple. Concrete operators provide fetchNext, the protected hook the
// original template-methods on.
type base struct {
	opened     bool
	buffered   *types.Tuple
	hasBuffer  bool
	fetchNext  func() (*types.Tuple, error)
}

func (b *base) openBase(fetchNext func() (*types.Tuple, error)) {
	b.fetchNext = fetchNext
	b.opened = true
	b.hasBuffer = false
	b.buffered = nil
}

func (b *base) closeBase() {
	b.opened = false
	b.hasBuffer = false
	b.buffered = nil
}

func (b *base) hasNext() (bool, error) {
	if !b.opened {
		return false, dberr.ErrUsageError
	}
	if b.hasBuffer {
		return b.buffered != nil, nil
	}
	t, err := b.fetchNext()
	if err != nil {
		return false, err
	}
	b.buffered = t
	b.hasBuffer = true
	return t != nil, nil
}

func (b *base) next() (*types.Tuple, error) {
	has, err := b.hasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, dberr.ErrUsageError
	}
	t := b.buffered
	b.hasBuffer = false
	b.buffered = nil
	return t, nil
}
