package climiter_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-concur/climiter"
)

// TestLimiter_Bound covers invariant 8: never more than limit operations
// execute concurrently; Wait returns only once every scheduled operation has
// finished.
func TestLimiter_Bound(t *testing.T) {
	const limit = 3
	const total = 20

	l := climiter.NewLimiter(limit)

	var (
		mu          sync.Mutex
		current     int
		maxObserved int
		completed   int32
	)

	for i := 0; i < total; i++ {
		err := l.Run(context.Background(), func(ctx context.Context) error {
			mu.Lock()
			current++
			if current > maxObserved {
				maxObserved = current
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
			atomic.AddInt32(&completed, 1)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, int32(total), atomic.LoadInt32(&completed))
	assert.LessOrEqual(t, maxObserved, limit)
}

func TestLimiter_RunDoesNotAwaitOperation(t *testing.T) {
	l := climiter.NewLimiter(1)
	started := make(chan struct{})
	release := make(chan struct{})

	err := l.Run(context.Background(), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal(`expected op to have started`)
	}

	close(release)
	require.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_WithOnErrorRoutesFailures(t *testing.T) {
	var mu sync.Mutex
	var routed []error

	l := climiter.NewLimiter(2, climiter.WithOnError(func(err error) {
		mu.Lock()
		routed = append(routed, err)
		mu.Unlock()
	}))

	boom := errors.New(`boom`)
	require.NoError(t, l.Run(context.Background(), func(context.Context) error { return boom }))
	require.NoError(t, l.Wait(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, routed, 1)
	assert.ErrorIs(t, routed[0], boom)
}

func TestLimiter_WithoutOnErrorPropagatesFromWait(t *testing.T) {
	l := climiter.NewLimiter(2)
	boom := errors.New(`boom`)

	require.NoError(t, l.Run(context.Background(), func(context.Context) error { return boom }))

	err := l.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestLimiter_RunCancelledBeforeSlotAcquired(t *testing.T) {
	l := climiter.NewLimiter(1)

	blocked := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, l.Run(context.Background(), func(context.Context) error {
		close(blocked)
		<-release
		return nil
	}))
	<-blocked

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Run(ctx, func(context.Context) error {
		t.Error(`op must not run when the slot could not be acquired`)
		return nil
	})
	assert.Error(t, err)

	close(release)
	require.NoError(t, l.Wait(context.Background()))
}
