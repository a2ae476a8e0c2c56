// Package buffer implements BufferPool: a fixed-capacity page cache with
// FIFO-over-clean eviction, lock acquisition on fetch, and commit/abort
// handling. It is the one component that talks to both lockmanager and
// catalog/storage, tying the storage and concurrency layers together the
// way the original Database singleton's BufferPool does.
package buffer

import (
	"container/list"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"relcore/catalog"
	"relcore/dberr"
	"relcore/lockmanager"
	"relcore/storage"
	"relcore/txn"
	"relcore/types"
)

// DefaultPages is the default cache capacity.
const DefaultPages = 50

// BufferPool is a fixed-capacity, lock-mediated page cache. It satisfies
// storage.PagePool so HeapFile can fetch pages through it without storage
// importing this package.
type BufferPool struct {
	mu       sync.Mutex
	cap      int
	cat      catalog.Catalog
	locks    *lockmanager.LockManager
	pages    map[types.PageID]*storage.HeapPage
	order    *list.List // insertion order, front = oldest, for FIFO eviction
	elements map[types.PageID]*list.Element
	log      *logrus.Entry
}

// New builds a BufferPool of the given capacity backed by cat for
// cold-page reads, using the lock manager's default timeout. capacity <= 0
// uses DefaultPages.
func New(capacity int, cat catalog.Catalog) *BufferPool {
	return newPool(capacity, cat, lockmanager.New())
}

// NewWithLockTiming is New but with the underlying LockManager's poll
// interval and attempt cap overridden, per relcore.Config.
func NewWithLockTiming(capacity int, cat catalog.Catalog, pollInterval time.Duration, maxAttempts int) *BufferPool {
	return newPool(capacity, cat, lockmanager.NewWithTiming(pollInterval, maxAttempts))
}

func newPool(capacity int, cat catalog.Catalog, locks *lockmanager.LockManager) *BufferPool {
	if capacity <= 0 {
		capacity = DefaultPages
	}
	return &BufferPool{
		cap:      capacity,
		cat:      cat,
		locks:    locks,
		pages:    make(map[types.PageID]*storage.HeapPage),
		order:    list.New(),
		elements: make(map[types.PageID]*list.Element),
		log:      logrus.WithField("component", "bufferpool"),
	}
}

// HoldsLock reports whether tid holds any lock on pid.
func (bp *BufferPool) HoldsLock(tid txn.ID, pid types.PageID) bool {
	return bp.locks.HoldsLock(tid, pid)
}

// GetPage acquires the lock appropriate to perm (WRITE for ReadWrite, READ
// for ReadOnly), then returns the cached page for pid, reading it from its
// DbFile and installing it (evicting if at capacity) on a cache miss.
func (bp *BufferPool) GetPage(tid txn.ID, pid types.PageID, perm txn.Permission) (*storage.HeapPage, error) {
	if perm == txn.ReadWrite {
		if err := bp.locks.AcquireExclusive(tid, pid); err != nil {
			return nil, err
		}
	} else {
		if err := bp.locks.AcquireShared(tid, pid); err != nil {
			return nil, err
		}
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if p, ok := bp.pages[pid]; ok {
		return p, nil
	}

	if len(bp.pages) >= bp.cap {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	file, err := bp.cat.GetDatabaseFile(pid.TableID)
	if err != nil {
		return nil, dberr.NewIoError("GetPage", err)
	}
	page, err := file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	bp.installLocked(page)
	return page, nil
}

// UnsafeReleasePage drops tid's lock on pid without waiting for
// transactionComplete, breaking strict two-phase locking. HeapFile.InsertTuple
// uses this to shed READ locks on pages that turn out full and were not
// already held.
func (bp *BufferPool) UnsafeReleasePage(tid txn.ID, pid types.PageID) {
	bp.locks.Release(tid, pid)
}

// InsertTuple asks tableId's DbFile to insert t and installs every page the
// insert dirtied, acquiring WRITE on any not already cached (the freshly
// created empty-page case). Such a page is installed the way GetPage
// installs a cache miss: a clean page is evicted first if the pool is full,
// so capacity is never exceeded.
func (bp *BufferPool) InsertTuple(tid txn.ID, tableID types.TableID, t *types.Tuple) error {
	file, err := bp.cat.GetDatabaseFile(tableID)
	if err != nil {
		return dberr.NewIoError("InsertTuple", err)
	}
	hf, ok := file.(*storage.HeapFile)
	if !ok {
		return dberr.ErrUsageError
	}
	dirtied, err := hf.InsertTuple(tid, bp, t)
	if err != nil {
		return err
	}
	for _, p := range dirtied {
		bp.mu.Lock()
		_, cached := bp.pages[p.ID()]
		bp.mu.Unlock()
		if cached {
			continue
		}

		// A freshly created page: HeapFile builds it in-memory without
		// going through GetPage, so no lock exists on it yet. Acquire
		// WRITE here before installing it, the way the original's
		// BufferPool.insertTuple does for this case.
		if err := bp.locks.AcquireExclusive(tid, p.ID()); err != nil {
			return err
		}

		bp.mu.Lock()
		if len(bp.pages) >= bp.cap {
			if err := bp.evictLocked(); err != nil {
				bp.mu.Unlock()
				return err
			}
		}
		bp.installLocked(p)
		bp.mu.Unlock()
	}
	return nil
}

// DeleteTuple asks t's table's DbFile to delete it and installs the
// resulting dirtied page if not already cached.
func (bp *BufferPool) DeleteTuple(tid txn.ID, tableID types.TableID, t *types.Tuple) error {
	file, err := bp.cat.GetDatabaseFile(tableID)
	if err != nil {
		return dberr.NewIoError("DeleteTuple", err)
	}
	hf, ok := file.(*storage.HeapFile)
	if !ok {
		return dberr.ErrUsageError
	}
	page, err := hf.DeleteTuple(tid, bp, t)
	if err != nil {
		return err
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if _, cached := bp.pages[page.ID()]; !cached {
		bp.installLocked(page)
	}
	return nil
}

// TransactionComplete ends tid's transaction. On commit, every page dirtied
// by tid is flushed to disk and its dirty flag cleared. On abort, every
// page dirtied by tid is evicted from the cache, discarding in-memory
// changes. Either path releases all of tid's locks.
func (bp *BufferPool) TransactionComplete(tid txn.ID, commit bool) error {
	if commit {
		if err := bp.FlushPages(tid); err != nil {
			return err
		}
	} else {
		bp.mu.Lock()
		for pid, p := range bp.pages {
			dirtyBy, dirty := p.IsDirty()
			if dirty && dirtyBy == tid {
				bp.removeLocked(pid)
			}
		}
		bp.mu.Unlock()
	}
	bp.locks.ReleaseAll(tid)
	return nil
}

// FlushPages writes every page dirtied by tid to disk and clears their
// dirty flag, without releasing tid's locks or ending its transaction.
func (bp *BufferPool) FlushPages(tid txn.ID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, p := range bp.pages {
		dirtyBy, dirty := p.IsDirty()
		if !dirty || dirtyBy != tid {
			continue
		}
		if err := bp.flushPageLocked(p); err != nil {
			return err
		}
		p.MarkDirty(false, tid)
	}
	return nil
}

// FlushAllPages writes every dirty cached page to disk, clearing its dirty
// flag, without releasing any locks.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, p := range bp.pages {
		if _, dirty := p.IsDirty(); !dirty {
			continue
		}
		if err := bp.flushPageLocked(p); err != nil {
			return err
		}
		p.MarkDirty(false, 0)
	}
	return nil
}

// FlushPage writes pid's cached page to disk and clears its dirty flag. It
// is a no-op if pid is not cached.
func (bp *BufferPool) FlushPage(pid types.PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	p, ok := bp.pages[pid]
	if !ok {
		return nil
	}
	if err := bp.flushPageLocked(p); err != nil {
		return err
	}
	p.MarkDirty(false, 0)
	return nil
}

func (bp *BufferPool) flushPageLocked(p *storage.HeapPage) error {
	file, err := bp.cat.GetDatabaseFile(p.ID().TableID)
	if err != nil {
		return dberr.NewIoError("flushPage", err)
	}
	return file.WritePage(p)
}

// RemovePage evicts pid from the cache without flushing it, discarding any
// unflushed changes. It is a no-op if pid is not cached.
func (bp *BufferPool) RemovePage(pid types.PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.removeLocked(pid)
}

// evictLocked scans cached pages in FIFO (insertion) order and discards the
// first clean one. If every cached page is dirty, it fails with
// ErrEvictionImpossible rather than violate NO-STEAL.
func (bp *BufferPool) evictLocked() error {
	for e := bp.order.Front(); e != nil; e = e.Next() {
		pid := e.Value.(types.PageID)
		p := bp.pages[pid]
		if _, dirty := p.IsDirty(); dirty {
			continue
		}
		bp.removeElementLocked(pid, e)
		return nil
	}
	bp.log.Warn("eviction impossible: every cached page is dirty")
	return dberr.ErrEvictionImpossible
}

func (bp *BufferPool) installLocked(p *storage.HeapPage) {
	pid := p.ID()
	bp.pages[pid] = p
	bp.elements[pid] = bp.order.PushBack(pid)
}

func (bp *BufferPool) removeLocked(pid types.PageID) {
	if e, ok := bp.elements[pid]; ok {
		bp.removeElementLocked(pid, e)
	}
}

func (bp *BufferPool) removeElementLocked(pid types.PageID, e *list.Element) {
	bp.order.Remove(e)
	delete(bp.elements, pid)
	delete(bp.pages, pid)
}
