package stats

import (
	"sync"

	"relcore/buffer"
	"relcore/catalog"
	"relcore/storage"
	"relcore/txn"
	"relcore/types"
)

// intHistBuckets/intHistMin/intHistMax are the fixed histogram parameters
// used for every INT field, regardless of the field's actual observed
// range — a deliberate simplification over the original's two-pass
// min/max discovery.
const (
	intHistBuckets = 10
	intHistMin     = 0
	intHistMax     = 32
	stringHistBuckets = 10
)

type fieldHistogram struct {
	ints    *IntHistogram
	strings *StringHistogram
}

// TableStats holds one histogram per field of a table plus its scanned
// tuple count and page count, supporting scan-cost, selectivity, and
// cardinality estimation.
type TableStats struct {
	tupleCount int64
	numPages   int
	fields     []fieldHistogram
	desc       *types.TupleDesc
}

// ComputeTableStats scans tableID once, under a fresh anonymous
// transaction, building one IntHistogram(10,0,32) per INT field and one
// StringHistogram(10) per STRING field.
func ComputeTableStats(tableID types.TableID, bp *buffer.BufferPool, cat catalog.Catalog) (*TableStats, error) {
	file, err := cat.GetDatabaseFile(tableID)
	if err != nil {
		return nil, err
	}
	desc := file.TupleDesc()

	ts := &TableStats{desc: desc, numPages: file.NumPages(), fields: make([]fieldHistogram, desc.NumFields())}
	for i := 0; i < desc.NumFields(); i++ {
		switch desc.FieldType(i) {
		case types.IntType:
			ts.fields[i].ints = NewIntHistogram(intHistBuckets, intHistMin, intHistMax)
		case types.StringType:
			ts.fields[i].strings = NewStringHistogram(stringHistBuckets)
		}
	}

	hf, ok := file.(*storage.HeapFile)
	if !ok {
		return ts, nil
	}
	tid := txn.New()
	it := storage.NewHeapFileIterator(tid, bp, hf)
	if err := it.Open(); err != nil {
		return nil, err
	}
	defer it.Close()
	defer bp.TransactionComplete(tid, true)

	for {
		has, err := it.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := it.Next()
		if err != nil {
			return nil, err
		}
		for i := 0; i < desc.NumFields(); i++ {
			switch f := t.Field(i).(type) {
			case types.IntField:
				ts.fields[i].ints.AddValue(int(f.Value))
			case types.StringField:
				ts.fields[i].strings.AddValue(f.Value)
			}
		}
		ts.tupleCount++
	}
	return ts, nil
}

// EstimateScanCost returns the estimated I/O cost of a full sequential scan
// of the table: ioCostPerPage times the table's page count.
func (ts *TableStats) EstimateScanCost(ioCostPerPage float64) float64 {
	return ioCostPerPage * float64(ts.numPages)
}

// EstimateTableCardinality returns tupleCount * selectivity.
func (ts *TableStats) EstimateTableCardinality(selectivity float64) int {
	return int(float64(ts.tupleCount) * selectivity)
}

// EstimateSelectivity routes to field's histogram (Int or String) and
// returns its estimated selectivity for "field op constant".
func (ts *TableStats) EstimateSelectivity(field int, op types.CompareOp, constant types.Field) float64 {
	fh := ts.fields[field]
	switch c := constant.(type) {
	case types.IntField:
		if fh.ints == nil {
			return -1
		}
		return fh.ints.EstimateSelectivity(op, int(c.Value))
	case types.StringField:
		if fh.strings == nil {
			return -1
		}
		return fh.strings.EstimateSelectivity(op, c.Value)
	default:
		return -1
	}
}

// TupleCount returns the number of tuples scanned when building ts.
func (ts *TableStats) TupleCount() int64 { return ts.tupleCount }

// NumPages returns the table's page count as of when ts was computed.
func (ts *TableStats) NumPages() int { return ts.numPages }

// Registry is the process-wide tableName -> TableStats map, the one piece
// of global state here; lifecycle is process lifetime, initialized lazily.
type Registry struct {
	mu    sync.RWMutex
	byName map[string]*TableStats
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide statistics registry, creating it
// on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = &Registry{byName: make(map[string]*TableStats)}
	})
	return defaultRegistry
}

// Get returns the stats registered for name, if any.
func (r *Registry) Get(name string) (*TableStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.byName[name]
	return ts, ok
}

// Set registers ts under name, replacing any prior entry.
func (r *Registry) Set(name string, ts *TableStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = ts
}

// ComputeStatistics (re)computes and registers TableStats for every table
// in cat, via bp.
func (r *Registry) ComputeStatistics(bp *buffer.BufferPool, cat catalog.Catalog) error {
	for _, id := range cat.TableIDs() {
		name, err := cat.GetTableName(id)
		if err != nil {
			return err
		}
		ts, err := ComputeTableStats(id, bp, cat)
		if err != nil {
			return err
		}
		r.Set(name, ts)
	}
	return nil
}
