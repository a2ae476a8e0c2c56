// Package relcore is the module's root: it has no types of its own beyond
// Config, which gathers the handful of tunables the engine's pieces take as
// constructor arguments. There is no CLI or shell here to parse these out
// of flags, so this stays a plain struct rather than a flag set.
package relcore

import "time"

// Config bundles BufferPool and LockManager tunables. There is no PageSize
// field: storage.PageSize is a compile-time constant, not a runtime
// setting.
type Config struct {
	// BufferPoolSize is the page cache capacity.
	BufferPoolSize int
	// LockPollInterval is how often a blocked lock request rechecks
	// availability.
	LockPollInterval time.Duration
	// LockMaxAttempts is how many polls a lock request makes before the
	// requesting transaction is aborted.
	LockMaxAttempts int
}

// DefaultConfig returns sensible defaults: a 50-page buffer pool and a
// 10ms/30-attempt (300ms total) lock timeout.
func DefaultConfig() Config {
	return Config{
		BufferPoolSize:   50,
		LockPollInterval: 10 * time.Millisecond,
		LockMaxAttempts:  30,
	}
}
