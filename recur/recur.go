// Package recur implements RecurrentJob: overlapping requests to re-run a
// single operation are coalesced into at most one additional run, instead of
// queueing one run per request.
package recur

import (
	"context"
	"sync"

	"github.com/joeycumines/go-concur/clog"
	"github.com/joeycumines/go-concur/condition"
)

// state is the job's position in the Inert -> InProgress -> Again ->
// InProgress -> Inert cycle.
type state int

const (
	stateInert state = iota
	stateInProgress
	stateAgain
)

type (
	// Job coalesces overlapping requests to re-run op. The zero value is not
	// usable; construct with NewJob.
	Job struct {
		op      func(context.Context) error
		onError func(error)

		mu    sync.Mutex
		state state
		err   error
		idle  *condition.Cond
	}

	// Option configures a Job constructed via NewJob.
	Option func(*Job)
)

// WithOnError routes a run's error to fn instead of leaving it for Wait to
// surface.
func WithOnError(fn func(error)) Option {
	return func(j *Job) {
		j.onError = fn
	}
}

// NewJob constructs a Job around op. Panics if op is nil.
func NewJob(op func(context.Context) error, opts ...Option) *Job {
	if op == nil {
		panic(`recur: op must not be nil`)
	}
	j := &Job{op: op, idle: condition.NewCond()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Request asks for a run of op. If the job is Inert, it transitions to
// InProgress and starts a run immediately. If a run is already InProgress,
// it transitions to Again, so exactly one more run starts once the current
// one ends; further requests made while Again are idempotent no-ops. ctx governs the run started by this call, if any; a run already in
// flight is unaffected.
func (j *Job) Request(ctx context.Context) {
	j.mu.Lock()
	switch j.state {
	case stateInert:
		j.state = stateInProgress
		j.mu.Unlock()
		go j.runLoop(ctx)
	case stateInProgress:
		j.state = stateAgain
		j.mu.Unlock()
		clog.Debug(`recur`, `coalesced request into the in-flight run`)
	default: // stateAgain
		j.mu.Unlock()
	}
}

// runLoop runs op, then either starts again (if a request arrived as Again
// during the run) or goes Inert, notifying any waiters once it does.
func (j *Job) runLoop(ctx context.Context) {
	for {
		err := j.op(ctx)

		j.mu.Lock()
		if err != nil {
			j.err = err
		}
		again := j.state == stateAgain
		if again {
			j.state = stateInProgress
		} else {
			j.state = stateInert
		}
		j.mu.Unlock()

		if err != nil {
			if j.onError != nil {
				j.onError(err)
			} else {
				clog.Error(`recur`, err)
			}
		}

		if !again {
			j.idle.NotifyAll()
			return
		}
	}
}

// Wait blocks until the job is Inert, or ctx is done. If no onError was
// configured, the most recent non-nil run error since the previous Wait (if
// any) is returned once the job goes idle; a later successful run does not
// clear it.
func (j *Job) Wait(ctx context.Context) error {
	j.mu.Lock()
	for j.state != stateInert {
		if !j.idle.Wait(ctx, &j.mu) {
			j.mu.Unlock()
			return ctx.Err()
		}
	}
	err := j.err
	j.err = nil
	j.mu.Unlock()

	if j.onError != nil {
		return nil
	}
	return err
}
