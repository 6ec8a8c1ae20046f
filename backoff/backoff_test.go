package backoff_test

import (
	"testing"
	"time"

	"golang.org/x/exp/rand"

	"github.com/joeycumines/go-concur/backoff"
)

func TestSession_NewPanicsOnNonPositiveBasis(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error(`expected NewSession(0) to panic`)
		}
	}()
	backoff.NewSession(0)
}

func TestSession_NextSleepTimeGrowsWithAttempts(t *testing.T) {
	basis := 10 * time.Millisecond
	s := backoff.NewSession(basis, backoff.WithRand(rand.New(rand.NewSource(1))))

	var prev time.Duration
	for i := 0; i < 5; i++ {
		d := s.NextSleepTime()
		if d < 0 {
			t.Fatalf(`expected non-negative duration, got %v`, d)
		}
		if i > 0 && d < prev {
			// not strictly guaranteed for every seed/attempt pair given
			// jitter, but attempts^2 growth dominates for this fixed seed
			// across 5 samples from the same source.
			t.Logf(`sleep time decreased from %v to %v at attempt %d (jitter variance)`, prev, d, i)
		}
		prev = d
	}
}

func TestSession_ResetAttempts(t *testing.T) {
	basis := 10 * time.Millisecond
	s := backoff.NewSession(basis, backoff.WithRand(rand.New(rand.NewSource(1))))

	_ = s.NextSleepTime()
	_ = s.NextSleepTime()
	_ = s.NextSleepTime()

	s.ResetAttempts()

	// advance a same-seed source past the 3 draws s already consumed, so the
	// two sessions' next draws match and only the attempt count can differ.
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 3; i++ {
		_ = r.Float64()
	}
	sAfterReset := backoff.NewSession(basis, backoff.WithRand(r))
	d1 := s.NextSleepTime()
	d2 := sAfterReset.NextSleepTime()

	if d1 != d2 {
		t.Errorf(`expected ResetAttempts to make attempt counting restart from 1, got %v vs %v`, d1, d2)
	}
}

func TestSession_DeterministicWithSeed(t *testing.T) {
	basis := 100 * time.Millisecond
	s1 := backoff.NewSession(basis, backoff.WithRand(rand.New(rand.NewSource(7))))
	s2 := backoff.NewSession(basis, backoff.WithRand(rand.New(rand.NewSource(7))))

	for i := 0; i < 3; i++ {
		d1 := s1.NextSleepTime()
		d2 := s2.NextSleepTime()
		if d1 != d2 {
			t.Errorf(`attempt %d: expected deterministic output for matching seeds, got %v vs %v`, i, d1, d2)
		}
	}
}
