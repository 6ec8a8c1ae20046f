// Package condition implements Cond, a wait-set with notify-one/notify-all
// semantics and cancellable waits, modeled on a Mesa-style condition
// variable (akin to sync.Cond) but cancellation-aware: suspension is
// threaded through a context.Context rather than resolving only on notify.
// Cond is the leaf primitive every other package in this module is built
// on.
//
// Like sync.Cond, Wait takes the caller's associated Locker and requires it
// held on entry: Wait registers the caller in the wait-set before releasing
// the lock, and reacquires it before returning, so a notify racing with the
// state check a caller makes just before calling Wait can never be missed.
package condition

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/joeycumines/go-concur/internal/waitset"
)

type (
	// Cond holds a wait-set of pending wake-ups. The zero value is not
	// usable; construct with NewCond.
	Cond struct {
		mu     sync.Mutex
		set    waitset.Set[waiter]
		randMu sync.Mutex
		rand   *rand.Rand
	}

	waiter struct {
		ch       chan struct{}
		notified bool
	}

	// Option configures a Cond constructed via NewCond.
	Option func(*Cond)
)

// WithRand injects a seedable random source for NotifyOne's selection
// policy, so fairness tests (spec property: "notify-one fairness is
// probabilistic ... over many trials ... trending to 1/2") can fix a seed.
// If not supplied, NewCond seeds from the current time.
func WithRand(r *rand.Rand) Option {
	return func(c *Cond) {
		c.rand = r
	}
}

// NewCond constructs a ready-to-use Cond.
func NewCond(opts ...Option) *Cond {
	c := &Cond{}
	for _, opt := range opts {
		opt(c)
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return c
}

// Wait suspends the caller until woken by NotifyOne/NotifyAll or ctx is
// done, returning true if resumed by a notify, false if resumed by
// cancellation. l must be held by the caller on entry; Wait registers the
// caller in the wait-set, then unlocks l, and relocks it before returning on
// every exit path — callers re-check their own condition in a loop exactly
// as with sync.Cond. If ctx is already done on entry, Wait still registers
// in the wait-set before observing the cancellation, keeping the cleanup
// path (dequeue from the wait-set) identical on every exit.
func (c *Cond) Wait(ctx context.Context, l sync.Locker) bool {
	w := &waiter{ch: make(chan struct{})}

	c.mu.Lock()
	c.set.Add(w)
	c.mu.Unlock()

	l.Unlock()
	defer l.Lock()

	select {
	case <-w.ch:
		return w.notified

	case <-ctx.Done():
		c.mu.Lock()
		select {
		case <-w.ch:
			// lost the race: a notify resolved w concurrently with ctx
			// becoming done; the notify wins, since it already happened.
			c.mu.Unlock()
			return w.notified
		default:
			c.set.Remove(w)
			close(w.ch)
			c.mu.Unlock()
			return false
		}
	}
}

// NotifyOne wakes a single waiter, chosen uniformly at random among those
// currently pending. If the wait-set is empty, the notify is lost: there is
// no pending-notification count to carry it forward.
//
// close(w.ch) happens inside the c.mu critical section, same as the
// removal: Wait's cancellation path also closes w.ch, but only after
// checking under c.mu whether a notify already claimed w. Closing here
// while still holding c.mu makes that check-then-close in Wait mutually
// exclusive with this one, so the two sides can never both close the same
// channel.
func (c *Cond) NotifyOne() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.set.Len()
	if n == 0 {
		return
	}
	w := c.set.At(c.randIntn(n))
	c.set.Remove(w)
	w.notified = true
	close(w.ch)
}

// NotifyAll wakes every currently pending waiter. The wait-set is emptied
// before any waiter observes its wake-up, so a continuation resumed by this
// call can never re-enter a stale set. Every close happens inside the same
// c.mu critical section as the drain, for the reason given in NotifyOne.
func (c *Cond) NotifyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	drained := c.set.DrainAll()
	for _, w := range drained {
		w.notified = true
		close(w.ch)
	}
}

// Waiting reports the number of callers currently suspended in Wait.
func (c *Cond) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set.Len()
}

func (c *Cond) randIntn(n int) int {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return c.rand.Intn(n)
}
