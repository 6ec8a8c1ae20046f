// Package testutil provides goroutine-leak checking shared across this
// module's test suites, grounded on the microbatch/eventloop tests'
// checkNumGoroutines pattern: snapshot the count, then poll for it to
// settle back down within a timeout.
package testutil

import (
	"runtime"
	"testing"
	"time"
)

// CheckNumGoroutines snapshots the current goroutine count and returns a
// function that, when called (typically deferred) with a *testing.T, polls
// until the count returns to the snapshot (or below), failing the test if it
// has not done so within timeout.
func CheckNumGoroutines(timeout time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(timeout)
		for {
			after := runtime.NumGoroutine()
			if after <= before {
				return
			}
			if time.Now().After(deadline) {
				t.Errorf(`goroutine leak: before=%d after=%d`, before, after)
				return
			}
			runtime.Gosched()
			time.Sleep(time.Millisecond)
		}
	}
}
