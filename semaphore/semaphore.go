// Package semaphore implements a multi-slot generalisation of mutex.Mutex:
// a counting lock whose handles carry identity, so a stale or repeated
// Release is always a no-op rather than corrupting the slot count.
package semaphore

import (
	"context"
	"sync"

	"github.com/joeycumines/go-concur/condition"
)

type (
	// Handle identifies a single successful Acquire. NoHandle is never
	// issued by Acquire.
	Handle uint64

	// Semaphore is an N-slot counting lock. The zero value is not usable;
	// construct with New.
	Semaphore struct {
		mu          sync.Mutex
		slots       int
		nextHandle  Handle
		outstanding map[Handle]struct{}
		cond        *condition.Cond
	}
)

// NoHandle is the handle value denoting "did not acquire."
const NoHandle Handle = 0

// New constructs a Semaphore with n slots. Panics if n <= 0.
func New(n int) *Semaphore {
	if n <= 0 {
		panic(`semaphore: n must be positive`)
	}
	return &Semaphore{
		slots:       n,
		outstanding: make(map[Handle]struct{}, n),
		cond:        condition.NewCond(),
	}
}

// Acquire blocks until a slot is free, then takes it, returning the handle
// identifying this acquisition. Returns NoHandle, false if ctx is done
// before a slot could be taken.
func (s *Semaphore) Acquire(ctx context.Context) (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.slots < 1 {
		if !s.cond.Wait(ctx, &s.mu) {
			return NoHandle, false
		}
	}
	s.slots--
	s.nextHandle++
	h := s.nextHandle
	s.outstanding[h] = struct{}{}
	return h, true
}

// Release gives up the slot held by h. A no-op if h is NoHandle or is not
// currently an outstanding handle.
func (s *Semaphore) Release(h Handle) {
	if h == NoHandle {
		return
	}
	s.mu.Lock()
	if _, ok := s.outstanding[h]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.outstanding, h)
	s.slots++
	s.mu.Unlock()
	s.cond.NotifyOne()
}

// WithSlot acquires a slot, runs fn with it held, and releases it on every
// exit path, including a panic propagating out of fn. aborted is true if
// ctx was done before a slot could be acquired, in which case fn is never
// called.
func (s *Semaphore) WithSlot(ctx context.Context, fn func() (any, error)) (result any, err error, aborted bool) {
	h, ok := s.Acquire(ctx)
	if !ok {
		return nil, nil, true
	}
	defer s.Release(h)
	return fn()
}

// Waiting reports the number of callers currently blocked in Acquire.
func (s *Semaphore) Waiting() int {
	return s.cond.Waiting()
}
