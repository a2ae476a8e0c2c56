// Package txn defines the identifiers that flow through the lock manager,
// buffer pool, and execution operators: TransactionID and the read/write
// Permission a page is fetched under. Transactions otherwise have no
// state of their own in this design — they begin implicitly on first lock
// and the buffer pool is what tracks what a transaction has touched.
package txn

import "sync/atomic"

// ID is an opaque, unique, equality-comparable transaction identifier.
type ID uint64

// Permission is the access mode a page is requested under.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

var counter uint64

// New allocates a fresh, process-unique TransactionID.
func New() ID {
	return ID(atomic.AddUint64(&counter, 1))
}
