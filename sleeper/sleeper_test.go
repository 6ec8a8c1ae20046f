package sleeper_test

import (
	"context"
	"testing"
	"time"

	"github.com/joeycumines/go-concur/sleeper"
)

func TestSleep_FullDuration(t *testing.T) {
	start := time.Now()
	ok := sleeper.Sleep(context.Background(), 20*time.Millisecond)
	if !ok {
		t.Error(`expected Sleep to return true`)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf(`expected at least 20ms to elapse, got %v`, elapsed)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	ok := sleeper.Sleep(ctx, time.Hour)
	if ok {
		t.Error(`expected Sleep to return false when cancelled`)
	}
}

func TestSleep_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ok := sleeper.Sleep(ctx, time.Hour)
	elapsed := time.Since(start)

	if ok {
		t.Error(`expected Sleep to return false`)
	}
	if elapsed > 50*time.Millisecond {
		t.Errorf(`expected immediate return without scheduling a timer, took %v`, elapsed)
	}
}
