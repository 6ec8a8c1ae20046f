// Package climiter implements ConcurrencyLimiter: a bound on how many
// operations may have their bodies executing at once, with each admitted
// operation scheduled as a detached task rather than awaited inline.
package climiter

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/go-concur/clog"
	"github.com/joeycumines/go-concur/condition"
	"github.com/joeycumines/go-concur/semaphore"
)

type (
	// Limiter bounds concurrent execution of detached operations. The zero
	// value is not usable; construct with NewLimiter.
	Limiter struct {
		sem     *semaphore.Semaphore
		drain   *condition.Cond
		onError func(error)

		mu          sync.Mutex
		outstanding int

		group errgroup.Group // keeps the first unrouted error, when onError is nil
	}

	// Option configures a Limiter constructed via NewLimiter.
	Option func(*Limiter)
)

// WithOnError routes every detached operation's error to fn instead of
// propagating it out of Wait.
func WithOnError(fn func(error)) Option {
	return func(l *Limiter) {
		l.onError = fn
	}
}

// NewLimiter constructs a Limiter admitting at most limit operations
// concurrently. Panics if limit <= 0.
func NewLimiter(limit int, opts ...Option) *Limiter {
	l := &Limiter{
		sem:   semaphore.New(limit),
		drain: condition.NewCond(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run pre-counts this operation as outstanding, acquires a slot (blocking if
// the limiter is saturated), then schedules op as a detached task and
// returns as soon as the slot is acquired — it does not await op. Returns
// ctx.Err() if ctx is done before a slot could be acquired, without running
// op.
func (l *Limiter) Run(ctx context.Context, op func(context.Context) error) error {
	l.mu.Lock()
	l.outstanding++
	l.mu.Unlock()

	h, ok := l.sem.Acquire(ctx)
	if !ok {
		l.finish()
		return ctx.Err()
	}

	if l.onError != nil {
		go func() {
			defer l.sem.Release(h)
			defer l.finish()
			if err := op(ctx); err != nil {
				l.onError(err)
			}
		}()
	} else {
		l.group.Go(func() error {
			defer l.sem.Release(h)
			defer l.finish()
			err := op(ctx)
			if err != nil {
				clog.Error(`climiter`, err)
			}
			return err
		})
	}

	return nil
}

// finish decrements the outstanding count, notifying every waiter in Wait
// once it reaches zero.
func (l *Limiter) finish() {
	l.mu.Lock()
	l.outstanding--
	drained := l.outstanding == 0
	l.mu.Unlock()
	if drained {
		l.drain.NotifyAll()
	}
}

// Wait blocks until every operation scheduled by Run has finished, or ctx is
// done. If no onError was configured, the first unrouted operation error (if
// any occurred since construction) is returned.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	for l.outstanding != 0 {
		if !l.drain.Wait(ctx, &l.mu) {
			l.mu.Unlock()
			return ctx.Err()
		}
	}
	l.mu.Unlock()

	if l.onError != nil {
		return nil
	}
	return l.group.Wait()
}
