// Package mutex implements a non-reentrant exclusive lock whose handles
// carry identity, so a stale holder (e.g. a caller cancelled after
// acquiring, which later tries to release anyway) cannot release a lock it
// no longer owns. Built directly on condition.Cond.
package mutex

import (
	"context"
	"sync"

	"github.com/joeycumines/go-concur/condition"
)

type (
	// Handle identifies a single successful Acquire. NoHandle is never
	// issued by Acquire, so it safely represents "no handle."
	Handle uint64

	// Mutex is a non-reentrant exclusive lock. The zero value is not usable;
	// construct with New.
	Mutex struct {
		mu     sync.Mutex
		locked bool
		handle Handle
		cond   *condition.Cond
	}
)

// NoHandle is the handle value denoting "did not acquire."
const NoHandle Handle = 0

// New constructs a ready-to-use Mutex.
func New() *Mutex {
	return &Mutex{cond: condition.NewCond()}
}

// Acquire blocks until the lock is free, then takes it, returning the
// handle identifying this acquisition. Returns NoHandle, false if ctx is
// done before the lock could be taken.
func (m *Mutex) Acquire(ctx context.Context) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.locked {
		if !m.cond.Wait(ctx, &m.mu) {
			return NoHandle, false
		}
	}
	m.locked = true
	m.handle++
	return m.handle, true
}

// Release gives up the lock held by h. A no-op if h is NoHandle, if the
// lock is not currently held, or if h no longer identifies the current
// holder (the handle counter increments on every Acquire, so any re-acquisition
// invalidates all prior handles).
func (m *Mutex) Release(h Handle) {
	if h == NoHandle {
		return
	}
	m.mu.Lock()
	if !m.locked || m.handle != h {
		m.mu.Unlock()
		return
	}
	m.locked = false
	m.mu.Unlock()
	m.cond.NotifyOne()
}

// WithLock acquires the lock, runs fn with it held, and releases it on
// every exit path, including a panic propagating out of fn. aborted is true
// if ctx was done before the lock could be acquired, in which case fn is
// never called.
func (m *Mutex) WithLock(ctx context.Context, fn func() (any, error)) (result any, err error, aborted bool) {
	h, ok := m.Acquire(ctx)
	if !ok {
		return nil, nil, true
	}
	defer m.Release(h)
	return fn()
}
