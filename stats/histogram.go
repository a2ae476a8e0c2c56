// Package stats implements selectivity estimation: equi-width histograms
// per field and a per-table statistics holder built from them, plus a
// process-wide registry. Ground-truthed against optimizer/IntHistogram.java
// and optimizer/TableStats.java.
package stats

import (
	"relcore/types"
)

// IntHistogram is a fixed-width histogram over an integer-valued field,
// spanning buckets equal-width buckets across [min, max].
type IntHistogram struct {
	buckets []int64
	min     int
	max     int
	step    float64
	total   int64
}

// NewIntHistogram builds an empty histogram with the given bucket count and
// value range.
func NewIntHistogram(buckets, min, max int) *IntHistogram {
	if buckets < 1 {
		buckets = 1
	}
	return &IntHistogram{
		buckets: make([]int64, buckets),
		min:     min,
		max:     max,
		step:    float64(max-min) / float64(buckets),
	}
}

func (h *IntHistogram) indexOf(v int) int {
	idx := int(float64(v-h.min) / h.step)
	if idx == len(h.buckets) {
		idx--
	}
	return idx
}

// AddValue folds v into its bucket, ignoring it if out of [min, max].
func (h *IntHistogram) AddValue(v int) {
	if v < h.min || v > h.max {
		return
	}
	h.buckets[h.indexOf(v)]++
	h.total++
}

// EstimateSelectivity returns the estimated fraction, in [0,1], of values
// satisfying "field op v".
func (h *IntHistogram) EstimateSelectivity(op types.CompareOp, v int) float64 {
	if h.total == 0 {
		return 0
	}
	idx := h.indexOf(v)

	switch op {
	case types.Equals, types.Like:
		if idx < 0 || idx >= len(h.buckets) {
			return 0
		}
		return float64(h.buckets[idx]) / h.step / float64(h.total)

	case types.NotEquals:
		if idx < 0 || idx >= len(h.buckets) {
			return 1
		}
		return 1 - float64(h.buckets[idx])/h.step/float64(h.total)

	case types.GreaterThan, types.GreaterThanOrEq:
		if v <= h.min {
			return 1
		}
		if v >= h.max {
			return 0
		}
		// The part of v's bucket strictly above v excludes v itself, which
		// GreaterThanOrEq adds back as the Equals estimate.
		count := (float64(h.min) + h.step*float64(idx+1) - float64(v) - 1) * float64(h.buckets[idx]) / h.step
		for i := idx + 1; i < len(h.buckets); i++ {
			count += float64(h.buckets[i])
		}
		if op == types.GreaterThanOrEq {
			return count/float64(h.total) + float64(h.buckets[idx])/h.step/float64(h.total)
		}
		if count < 0 {
			return 0
		}
		return count / float64(h.total)

	case types.LessThan, types.LessThanOrEq:
		if v <= h.min {
			return 0
		}
		if v >= h.max {
			return 1
		}
		count := (float64(v) - float64(h.min) - h.step*float64(idx)) * float64(h.buckets[idx]) / h.step
		for i := 0; i < idx; i++ {
			count += float64(h.buckets[i])
		}
		if op == types.LessThanOrEq {
			return count/float64(h.total) + float64(h.buckets[idx])/h.step/float64(h.total)
		}
		return count / float64(h.total)
	}
	return -1
}

// StringHistogram estimates selectivity over a STRING field by hashing each
// string to an integer key and delegating to an IntHistogram over the
// resulting key space.
type StringHistogram struct {
	inner *IntHistogram
}

const stringKeySpace = 1 << 20

// NewStringHistogram builds a StringHistogram with the given bucket count.
func NewStringHistogram(buckets int) *StringHistogram {
	return &StringHistogram{inner: NewIntHistogram(buckets, 0, stringKeySpace-1)}
}

func stringKey(s string) int {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return int(h % stringKeySpace)
}

// AddValue folds s into the histogram via its integer key.
func (h *StringHistogram) AddValue(s string) {
	h.inner.AddValue(stringKey(s))
}

// EstimateSelectivity estimates the fraction of values satisfying "field op s".
func (h *StringHistogram) EstimateSelectivity(op types.CompareOp, s string) float64 {
	if op == types.Like {
		op = types.Equals
	}
	return h.inner.EstimateSelectivity(op, stringKey(s))
}
