package stats

import (
	"testing"

	"github.com/stretchr/testify/require"

	"relcore/buffer"
	"relcore/relcoretest"
	"relcore/txn"
	"relcore/types"
)

func insertRows(t *testing.T, fx *relcoretest.Fixture, rows ...[2]interface{}) {
	t.Helper()
	tid := txn.New()
	for _, r := range rows {
		tup := fx.NewTuple(int32(r[0].(int)), r[1].(string))
		require.NoError(t, fx.Pool.InsertTuple(tid, fx.File.ID(), tup))
	}
	require.NoError(t, fx.Pool.TransactionComplete(tid, true))
}

func TestComputeTableStats_TupleCountAndNumPages(t *testing.T) {
	fx := relcoretest.NewFixture(t, "t", relcoretest.IntStringDesc(), buffer.DefaultPages)
	insertRows(t, fx, [2]interface{}{1, "a"}, [2]interface{}{2, "b"}, [2]interface{}{3, "c"})

	ts, err := ComputeTableStats(fx.File.ID(), fx.Pool, fx.Catalog)
	require.NoError(t, err)
	require.EqualValues(t, 3, ts.TupleCount())
	require.Equal(t, fx.File.NumPages(), ts.NumPages())
	require.GreaterOrEqual(t, ts.NumPages(), 1)
}

func TestTableStats_EstimateScanCost(t *testing.T) {
	fx := relcoretest.NewFixture(t, "t", relcoretest.IntStringDesc(), buffer.DefaultPages)
	insertRows(t, fx, [2]interface{}{1, "a"}, [2]interface{}{2, "b"})

	ts, err := ComputeTableStats(fx.File.ID(), fx.Pool, fx.Catalog)
	require.NoError(t, err)

	numPages := ts.NumPages()
	require.Equal(t, float64(numPages)*4, ts.EstimateScanCost(4))
	require.Zero(t, ts.EstimateScanCost(0))
}

func TestTableStats_EstimateSelectivityAndCardinality(t *testing.T) {
	fx := relcoretest.NewFixture(t, "t", relcoretest.IntStringDesc(), buffer.DefaultPages)
	insertRows(t, fx, [2]interface{}{1, "a"}, [2]interface{}{2, "b"}, [2]interface{}{3, "c"}, [2]interface{}{4, "d"})

	ts, err := ComputeTableStats(fx.File.ID(), fx.Pool, fx.Catalog)
	require.NoError(t, err)

	sel := ts.EstimateSelectivity(0, types.Equals, types.IntField{Value: 2})
	require.Greater(t, sel, 0.0)
	require.LessOrEqual(t, sel, 1.0)

	require.Equal(t, int(4*sel), ts.EstimateTableCardinality(sel))
}

func TestRegistry_ComputeStatisticsAndGet(t *testing.T) {
	fx := relcoretest.NewFixture(t, "t", relcoretest.IntStringDesc(), buffer.DefaultPages)
	insertRows(t, fx, [2]interface{}{1, "a"})

	reg := &Registry{byName: make(map[string]*TableStats)}
	require.NoError(t, reg.ComputeStatistics(fx.Pool, fx.Catalog))

	ts, ok := reg.Get("t")
	require.True(t, ok)
	require.EqualValues(t, 1, ts.TupleCount())

	_, ok = reg.Get("missing")
	require.False(t, ok)
}
