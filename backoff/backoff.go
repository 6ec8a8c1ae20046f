// Package backoff implements BackoffSession, a jittered exponential retry
// delay generator. Superposing many independent sessions approximates a
// Poisson retry process, which is what keeps a thundering herd of retrying
// clients from re-synchronising on each other.
package backoff

import (
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// maxUniform bounds the underlying uniform sample before it is converted to
// an exponential draw, so a draw close to 1 never produces an unbounded
// delay.
const maxUniform = 0.995

type (
	// Session tracks one caller's retry attempt count and produces the next
	// delay on demand. The zero value is not usable; construct with
	// NewSession.
	Session struct {
		mu       sync.Mutex
		basis    time.Duration
		attempts int
		rand     *rand.Rand
	}

	// Option configures a Session constructed via NewSession.
	Option func(*Session)
)

// WithRand injects a seedable random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		s.rand = r
	}
}

// NewSession constructs a Session with the given basis wait time. Panics if
// basis is not positive.
func NewSession(basis time.Duration, opts ...Option) *Session {
	if basis <= 0 {
		panic(`backoff: basis must be positive`)
	}
	s := &Session{basis: basis}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return s
}

// NextSleepTime increments the attempt counter, then returns
// jitter * basis * attempts^2, where jitter*basis follows an exponential
// distribution with rate 1/basis (mean basis), sampled via inverse
// transform from a uniform draw clamped at 0.995 to bound the tail.
func (s *Session) NextSleepTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	attempts := s.attempts

	u := s.rand.Float64()
	if u > maxUniform {
		u = maxUniform
	}
	jitter := -math.Log(1 - u)

	return time.Duration(jitter * float64(attempts) * float64(attempts) * float64(s.basis))
}

// ResetAttempts zeroes the attempt counter.
func (s *Session) ResetAttempts() {
	s.mu.Lock()
	s.attempts = 0
	s.mu.Unlock()
}
