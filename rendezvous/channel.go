// Package rendezvous implements Channel[T], an unbuffered handshake between
// exactly one writer and one reader at a time: Write blocks until a reader
// claims the value, Read blocks until a writer posts one. There is no
// internal queue — this is the rendezvous channel named in the spec this
// module implements, built on three condition.Cond instances rather than
// Go's native `chan`, so that close, cancellation, and multi-way select
// all observe the same three well-defined failure kinds (see errors.go).
package rendezvous

import (
	"context"
	"math"
	"sync"

	"github.com/joeycumines/go-concur/condition"
)

// sentinelSerial is the initial value of both readSerial and writeSerial:
// a large negative number far from zero, so early comparisons (readSerial <
// writeSerial, etc.) behave identically to starting both at zero, while
// leaving headroom before either counter could plausibly overflow.
const sentinelSerial = math.MinInt64 / 2

// Channel is an unbuffered rendezvous channel for values of type T. The
// zero value is not usable; construct with NewChannel.
type Channel[T any] struct {
	mu          sync.Mutex
	readSerial  int64
	writeSerial int64
	closed      bool
	inTransit   bool
	value       T

	readWaiters   *condition.Cond // notified when a writer posts a value
	writeComplete *condition.Cond // notified when a reader claims a value
	writeAdmit    *condition.Cond // notified when the single value slot frees up
}

// NewChannel constructs a ready-to-use Channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{
		readSerial:    sentinelSerial,
		writeSerial:   sentinelSerial,
		readWaiters:   condition.NewCond(),
		writeComplete: condition.NewCond(),
		writeAdmit:    condition.NewCond(),
	}
}

// IsClosed reports whether Close has been called.
func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Write posts value, blocking until a reader claims it, the channel closes,
// or ctx is done. See the package doc for the three possible error kinds.
func (c *Channel[T]) Write(ctx context.Context, value T) error {
	c.mu.Lock()
	for c.inTransit && !c.closed {
		if !c.writeAdmit.Wait(ctx, &c.mu) {
			c.mu.Unlock()
			return ErrWriteCancelled
		}
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.inTransit = true
	c.value = value
	c.writeSerial++
	target := c.writeSerial
	c.mu.Unlock()

	c.readWaiters.NotifyOne()

	c.mu.Lock()
	var cancelled bool
	for c.readSerial < target && !c.closed {
		if !c.writeComplete.Wait(ctx, &c.mu) {
			cancelled = true
			break
		}
	}

	if cancelled {
		// the reader we were waiting for never showed up; bump the serial
		// so future reads/writes stay aligned with each other.
		c.readSerial++
	}
	delivered := !cancelled && c.readSerial >= target
	closedUndelivered := c.closed && !delivered

	var zero T
	c.value = zero
	c.inTransit = false
	c.mu.Unlock()

	c.writeAdmit.NotifyOne()

	switch {
	case cancelled:
		return ErrWriteCancelled
	case closedUndelivered:
		return ErrClosed
	default:
		return nil
	}
}

// Read claims the next posted value, blocking until a writer posts one, the
// channel closes, or ctx is done.
func (c *Channel[T]) Read(ctx context.Context) (T, error) {
	return c.read(ctx, nil)
}

// read implements the read protocol, with an optional decline hook used by
// Select to enforce its at-most-one-handler invariant across channels.
func (c *Channel[T]) read(ctx context.Context, decline func() bool) (T, error) {
	var zero T

	c.mu.Lock()
	for c.readSerial >= c.writeSerial && !c.closed {
		if !c.readWaiters.Wait(ctx, &c.mu) {
			c.mu.Unlock()
			return zero, ErrReadCancelled
		}
	}
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	if decline != nil && decline() {
		c.mu.Unlock()
		return zero, ErrReadCancelled
	}

	value := c.value
	c.readSerial++
	c.mu.Unlock()

	c.writeComplete.NotifyOne()
	return value, nil
}

// Close is idempotent. Every pending Read/Write completes with ErrClosed,
// and every subsequent Read/Write raises ErrClosed immediately.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.readWaiters.NotifyAll()
	c.writeComplete.NotifyAll()
	c.writeAdmit.NotifyAll()
}
