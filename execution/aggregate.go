package execution

import (
	"relcore/aggregation"
	"relcore/dberr"
	"relcore/types"
)

// Aggregate drains its child into an Aggregator at Open and exposes the
// finished groups through the pull protocol. The Integer/String choice is
// made from the child's schema at Open, mirroring the original's
// field-type dispatch.
type Aggregate struct {
	base
	child     Operator
	afield    int
	gfield    int
	op        aggregation.Op
	aggregator aggregation.Aggregator

	results []*types.Tuple
	pos     int
}

// NewAggregate builds an aggregate of child's afield, grouped by gfield
// (aggregation.NoGrouping for none), using op. Returns ErrUsageError at
// construction if afield's type does not support op, rejecting unsupported
// STRING aggregates up front rather than silently doing nothing.
func NewAggregate(child Operator, afield, gfield int, op aggregation.Op) (*Aggregate, error) {
	desc := child.TupleDesc()
	afieldType := desc.FieldType(afield)
	if afieldType != types.IntType && op != aggregation.Count {
		return nil, dberr.ErrUsageError
	}
	return &Aggregate{child: child, afield: afield, gfield: gfield, op: op}, nil
}

// TupleDesc describes the aggregator's result tuples; valid only after Open.
func (a *Aggregate) TupleDesc() *types.TupleDesc {
	if a.aggregator != nil {
		return a.aggregator.TupleDesc()
	}
	return nil
}

// Open drains the child entirely into the aggregator, then exposes Result().
func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return err
	}
	defer a.child.Close()

	childDesc := a.child.TupleDesc()
	afieldType := childDesc.FieldType(a.afield)
	gfieldType := types.IntType
	afieldName := childDesc.FieldName(a.afield)
	if a.gfield != aggregation.NoGrouping {
		gfieldType = childDesc.FieldType(a.gfield)
	}

	var agg aggregation.Aggregator
	if afieldType == types.IntType {
		agg = aggregation.NewIntegerAggregator(a.gfield, gfieldType, a.afield, afieldName, a.op)
	} else {
		sa, err := aggregation.NewStringAggregator(a.gfield, gfieldType, afieldName, a.op)
		if err != nil {
			return err
		}
		agg = sa
	}

	for {
		has, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		if err := agg.MergeTupleIntoGroup(t); err != nil {
			return err
		}
	}

	a.aggregator = agg
	a.results = agg.Result()
	a.pos = 0
	a.openBase(a.fetchNext)
	return nil
}

func (a *Aggregate) fetchNext() (*types.Tuple, error) {
	if a.pos >= len(a.results) {
		return nil, nil
	}
	t := a.results[a.pos]
	a.pos++
	return t, nil
}

// HasNext reports whether another group remains.
func (a *Aggregate) HasNext() (bool, error) { return a.hasNext() }

// Next returns the next (group, value) tuple.
func (a *Aggregate) Next() (*types.Tuple, error) { return a.next() }

// Rewind restarts iteration over the already-computed groups without
// re-draining the child.
func (a *Aggregate) Rewind() error {
	a.pos = 0
	a.hasBuffer = false
	a.buffered = nil
	return nil
}

// Close ends iteration.
func (a *Aggregate) Close() {
	a.closeBase()
}
