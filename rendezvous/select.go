package rendezvous

import (
	"context"
	"sync"
)

// SelectCase is one arm of a Select call, built with Recv. The handler runs
// to completion on exactly one winning arm; see Select.
type SelectCase struct {
	run func(ctx context.Context, decline func() bool) error
}

// Recv builds a SelectCase that reads from ch, invoking handler with the
// claimed value if this arm wins the race. Any error handler returns
// becomes Select's return value.
func Recv[T any](ch *Channel[T], handler func(T) error) SelectCase {
	return SelectCase{
		run: func(ctx context.Context, decline func() bool) error {
			v, err := ch.read(ctx, decline)
			if err != nil {
				return err
			}
			return handler(v)
		},
	}
}

// Select waits for exactly one of cases to deliver a value, runs that arm's
// handler to completion, and returns. At most one handler ever runs, even
// when several reads would otherwise complete concurrently due to
// scheduler interleaving: a shared "taken" flag gates every arm's claim, so
// only the first to pass its own Read preconditions actually consumes a
// value — every other arm observes ErrReadCancelled and backs off cleanly,
// leaving its paired Write free to proceed (or itself be cancelled).
//
// Select joins on every arm before returning (not just the winner), because
// only then is the shared flag quiescent and every channel's serial
// counters left consistent. A losing arm's ErrReadCancelled is swallowed;
// any other error — including ErrClosed from an arm whose channel closed
// mid-select — propagates and becomes Select's return value. Whether a
// closed arm should instead be treated as "remove that arm and keep
// waiting" is intentionally unspecified upstream; this implementation does
// not guess, and propagates.
//
// If ctx is done before any arm wins, every arm observes the cancellation
// and backs off with ErrReadCancelled, and Select returns ErrReadCancelled.
func Select(ctx context.Context, cases ...SelectCase) error {
	if len(cases) == 0 {
		panic(`rendezvous: select: no cases`)
	}

	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		takenMu sync.Mutex
		taken   bool
	)
	decline := func() bool {
		takenMu.Lock()
		defer takenMu.Unlock()
		if taken {
			return true
		}
		taken = true
		return false
	}

	errs := make([]error, len(cases))
	var wg sync.WaitGroup
	wg.Add(len(cases))
	for i, c := range cases {
		go func(i int, c SelectCase) {
			defer wg.Done()
			var won bool
			err := c.run(childCtx, func() bool {
				if decline() {
					return true
				}
				won = true
				// This arm has claimed the handoff: cancel childCtx now,
				// not after the handler runs, so sibling reads waiting on
				// it unblock immediately regardless of what the handler
				// returns. Waiting until the handler finishes would let a
				// failing handler's error hang every sibling forever.
				cancel()
				return false
			})
			if !won {
				if err != ErrReadCancelled {
					errs[i] = err
				}
				return
			}
			errs[i] = err
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	takenMu.Lock()
	won := taken
	takenMu.Unlock()
	if !won {
		// ctx was done before any arm could win the race.
		return ErrReadCancelled
	}
	return nil
}
