package execution

import "relcore/types"

// Predicate tests one field of a tuple against a constant, the filter a
// SeqScan applies as it pulls tuples from storage — the original SimpleDB
// ships this as a separate Filter operator wrapping a child iterator;
// folding it into SeqScan avoids adding a second operator for the same
// single-field case.
type Predicate struct {
	Field   int
	Op      types.CompareOp
	Operand types.Field
}

// Matches reports whether t satisfies the predicate.
func (p Predicate) Matches(t *types.Tuple) bool {
	return t.Field(p.Field).Compare(p.Op, p.Operand)
}
