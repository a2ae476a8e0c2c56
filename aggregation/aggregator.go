// Package aggregation implements the GROUP BY aggregators that back the
// Aggregate operator, in the style of the original
// execution/IntegerAggregator.java: merge tuples one at a time into a
// per-group running value, then hand back an iterator over the finished
// groups.
package aggregation

import (
	"relcore/dberr"
	"relcore/types"
)

// Op is a supported aggregate operator.
type Op int

const (
	Min Op = iota
	Max
	Sum
	Avg
	Count
)

func (o Op) String() string {
	switch o {
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Count:
		return "COUNT"
	default:
		return "UNKNOWN"
	}
}

// NoGrouping is the sentinel group-field index meaning "aggregate over the
// whole input, ungrouped".
const NoGrouping = -1

// Aggregator accumulates tuples into groups and exposes the finished result
// as a tuple slice once draining is complete.
type Aggregator interface {
	// MergeTupleIntoGroup folds one input tuple into its group's running state.
	MergeTupleIntoGroup(t *types.Tuple) error
	// Result returns the finished (group, aggregateValue) tuples.
	Result() []*types.Tuple
	// TupleDesc describes the tuples Result returns.
	TupleDesc() *types.TupleDesc
}

type groupKey struct {
	hasField bool
	value    types.Field
}

func keyOf(t *types.Tuple, gfield int) groupKey {
	if gfield == NoGrouping {
		return groupKey{}
	}
	return groupKey{hasField: true, value: t.Field(gfield)}
}

type runningState struct {
	count int
	sum   int64
	min   int64
	max   int64
	first bool
}

// IntegerAggregator aggregates an INT field, optionally grouped by a field
// of any type, supporting MIN, MAX, SUM, AVG, COUNT.
type IntegerAggregator struct {
	gfield    int
	gfieldType types.Type
	afield    int
	afieldName string
	op        Op

	order  []groupKey
	states map[groupKey]*runningState
}

// NewIntegerAggregator builds an aggregator over afield (named afieldName,
// for the output column's "OP(name)" label), grouped by gfield (NoGrouping
// for none) of type gfieldType.
func NewIntegerAggregator(gfield int, gfieldType types.Type, afield int, afieldName string, op Op) *IntegerAggregator {
	return &IntegerAggregator{
		gfield:     gfield,
		gfieldType: gfieldType,
		afield:     afield,
		afieldName: afieldName,
		op:         op,
		states:     make(map[groupKey]*runningState),
	}
}

// MergeTupleIntoGroup folds t's afield value into its group's running state.
func (a *IntegerAggregator) MergeTupleIntoGroup(t *types.Tuple) error {
	f, ok := t.Field(a.afield).(types.IntField)
	if !ok {
		return dberr.ErrSchemaMismatch
	}
	k := keyOf(t, a.gfield)
	st, ok := a.states[k]
	if !ok {
		st = &runningState{first: true}
		a.states[k] = st
		a.order = append(a.order, k)
	}
	v := int64(f.Value)
	if st.first {
		st.min, st.max = v, v
		st.first = false
	} else {
		if v < st.min {
			st.min = v
		}
		if v > st.max {
			st.max = v
		}
	}
	st.sum += v
	st.count++
	return nil
}

func (a *IntegerAggregator) valueFor(st *runningState) int32 {
	switch a.op {
	case Min:
		return int32(st.min)
	case Max:
		return int32(st.max)
	case Sum:
		return int32(st.sum)
	case Avg:
		return int32(st.sum / int64(st.count))
	case Count:
		return int32(st.count)
	default:
		return 0
	}
}

// TupleDesc describes the (group?, aggregateValue) result tuples: a single
// field if ungrouped, else (groupFieldType, INT).
func (a *IntegerAggregator) TupleDesc() *types.TupleDesc {
	aggName := a.op.String() + "(" + a.afieldName + ")"
	if a.gfield == NoGrouping {
		return types.NewTupleDesc(types.FieldDesc{Type: types.IntType, Name: aggName})
	}
	return types.NewTupleDesc(
		types.FieldDesc{Type: a.gfieldType, Name: "groupby"},
		types.FieldDesc{Type: types.IntType, Name: aggName},
	)
}

// Result returns one tuple per group, in first-seen order.
func (a *IntegerAggregator) Result() []*types.Tuple {
	desc := a.TupleDesc()
	out := make([]*types.Tuple, 0, len(a.order))
	for _, k := range a.order {
		st := a.states[k]
		var t *types.Tuple
		if a.gfield == NoGrouping {
			t = types.NewTuple(desc)
			_ = t.SetField(0, types.IntField{Value: a.valueFor(st)})
		} else {
			t = types.NewTuple(desc)
			_ = t.SetField(0, k.value)
			_ = t.SetField(1, types.IntField{Value: a.valueFor(st)})
		}
		out = append(out, t)
	}
	return out
}

// StringAggregator aggregates a STRING field; only COUNT is supported, so
// NewStringAggregator returns an error for any other op rather than
// silently doing nothing as the original does.
type StringAggregator struct {
	gfield     int
	gfieldType types.Type
	afieldName string

	order  []groupKey
	counts map[groupKey]int
}

// NewStringAggregator builds a COUNT-only aggregator over a STRING field.
func NewStringAggregator(gfield int, gfieldType types.Type, afieldName string, op Op) (*StringAggregator, error) {
	if op != Count {
		return nil, dberr.ErrUsageError
	}
	return &StringAggregator{
		gfield:     gfield,
		gfieldType: gfieldType,
		afieldName: afieldName,
		counts:     make(map[groupKey]int),
	}, nil
}

// MergeTupleIntoGroup increments t's group's count.
func (a *StringAggregator) MergeTupleIntoGroup(t *types.Tuple) error {
	k := keyOf(t, a.gfield)
	if _, ok := a.counts[k]; !ok {
		a.order = append(a.order, k)
	}
	a.counts[k]++
	return nil
}

// TupleDesc describes the (group?, count) result tuples.
func (a *StringAggregator) TupleDesc() *types.TupleDesc {
	aggName := "COUNT(" + a.afieldName + ")"
	if a.gfield == NoGrouping {
		return types.NewTupleDesc(types.FieldDesc{Type: types.IntType, Name: aggName})
	}
	return types.NewTupleDesc(
		types.FieldDesc{Type: a.gfieldType, Name: "groupby"},
		types.FieldDesc{Type: types.IntType, Name: aggName},
	)
}

// Result returns one (group, count) tuple per group, in first-seen order.
func (a *StringAggregator) Result() []*types.Tuple {
	desc := a.TupleDesc()
	out := make([]*types.Tuple, 0, len(a.order))
	for _, k := range a.order {
		t := types.NewTuple(desc)
		if a.gfield == NoGrouping {
			_ = t.SetField(0, types.IntField{Value: int32(a.counts[k])})
		} else {
			_ = t.SetField(0, k.value)
			_ = t.SetField(1, types.IntField{Value: int32(a.counts[k])})
		}
		out = append(out, t)
	}
	return out
}
