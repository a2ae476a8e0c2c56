package lockmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relcore/dberr"
	"relcore/txn"
	"relcore/types"
)

func pid(n int) types.PageID { return types.PageID{TableID: 1, PageNumber: n} }

func TestLockManager_SharedLocksCoexist(t *testing.T) {
	lm := New()
	p := pid(0)
	t1, t2 := txn.New(), txn.New()

	require.NoError(t, lm.AcquireShared(t1, p))
	require.NoError(t, lm.AcquireShared(t2, p))
	require.True(t, lm.HoldsLock(t1, p))
	require.True(t, lm.HoldsLock(t2, p))
}

func TestLockManager_ExclusiveExcludesOthers(t *testing.T) {
	lm := New()
	p := pid(0)
	t1, t2 := txn.New(), txn.New()

	require.NoError(t, lm.AcquireExclusive(t1, p))

	done := make(chan error, 1)
	go func() { done <- lm.AcquireShared(t2, p) }()

	select {
	case err := <-done:
		require.Error(t, err)
		require.True(t, dberr.IsTransactionAborted(err))
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected t2's acquire to time out and abort within 300ms")
	}
}

func TestLockManager_UpgradeInPlaceWhenSoleHolder(t *testing.T) {
	lm := New()
	p := pid(0)
	t1 := txn.New()

	require.NoError(t, lm.AcquireShared(t1, p))
	require.NoError(t, lm.AcquireExclusive(t1, p))
	require.True(t, lm.HoldsLock(t1, p))
}

func TestLockManager_ReleaseAllClearsHeldSet(t *testing.T) {
	lm := New()
	p1, p2 := pid(0), pid(1)
	t1 := txn.New()

	require.NoError(t, lm.AcquireShared(t1, p1))
	require.NoError(t, lm.AcquireExclusive(t1, p2))
	lm.ReleaseAll(t1)
	require.False(t, lm.HoldsLock(t1, p1))
	require.False(t, lm.HoldsLock(t1, p2))
}

func TestLockManager_TimeoutAbortReleasesLocks(t *testing.T) {
	lm := New()
	p := pid(0)
	t1, t2 := txn.New(), txn.New()

	require.NoError(t, lm.AcquireExclusive(t1, p))
	err := lm.AcquireExclusive(t2, p)
	require.Error(t, err)
	require.True(t, dberr.IsTransactionAborted(err))
	require.False(t, lm.HoldsLock(t2, p))
	require.True(t, lm.HoldsLock(t1, p), "t1's lock must be untouched by t2's abort")
}
