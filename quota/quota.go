// Package quota implements QuotaGovernor, a fair-queued rate limiter: at
// most ratePerSecond callers are admitted per second, with arrival order
// honoured by charging each caller for every admission still ahead of it.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/joeycumines/go-concur/sleeper"
)

type (
	// Governor admits callers at a bounded rate. The zero value is not
	// usable; construct with NewGovernor.
	Governor struct {
		mu          sync.Mutex
		waitPeriod  time.Duration
		outstanding int
		lastTime    time.Time
		hasLast     bool
		clock       sleeper.Clock
	}

	// Option configures a Governor constructed via NewGovernor.
	Option func(*Governor)
)

// WithClock injects a sleeper.Clock, for tests.
func WithClock(c sleeper.Clock) Option {
	return func(g *Governor) {
		g.clock = c
	}
}

// NewGovernor constructs a Governor admitting at most ratePerSecond callers
// per second. Panics if ratePerSecond is not positive.
func NewGovernor(ratePerSecond float64, opts ...Option) *Governor {
	if ratePerSecond <= 0 {
		panic(`quota: ratePerSecond must be positive`)
	}
	g := &Governor{
		waitPeriod: time.Duration(float64(time.Second) / ratePerSecond),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.clock == nil {
		g.clock = sleeper.RealClock{}
	}
	return g
}

// Wait blocks until this caller is admitted, or ctx is done. Returns true if
// admitted, false if cancelled first. On entry, prior is the number of
// callers already outstanding (queued ahead of this one); the caller then
// sleeps for max(waitPeriod-deltaFromLast, 0) + waitPeriod*prior, where
// deltaFromLast is the time since the last completed admission (or
// unbounded, if none has completed yet).
func (g *Governor) Wait(ctx context.Context) bool {
	g.mu.Lock()
	prior := g.outstanding
	g.outstanding++
	now := g.clock.Now()
	var deltaFromLast time.Duration
	if g.hasLast {
		deltaFromLast = now.Sub(g.lastTime)
	} else {
		deltaFromLast = time.Duration(1<<63 - 1) // unbounded: nothing admitted yet
	}
	g.mu.Unlock()

	sleepFor := g.waitPeriod - deltaFromLast
	if sleepFor < 0 {
		sleepFor = 0
	}
	sleepFor += g.waitPeriod * time.Duration(prior)

	ok := sleeper.SleepClock(ctx, g.clock, sleepFor)

	g.mu.Lock()
	g.lastTime = g.clock.Now()
	g.hasLast = true
	g.outstanding--
	g.mu.Unlock()

	return ok
}
