// Package backoff implements the exponential-backoff-with-jitter policy
// used by the poller when the gateway returns a retryable error. The
// gateway adapter's connection-retry counter does not use it.
package backoff

import (
	"math/rand"
	"time"
)

// Policy describes one exponential-backoff schedule.
type Policy struct {
	// Initial is the first delay.
	Initial time.Duration
	// Max caps the delay; growth stops once reached.
	Max time.Duration
	// Factor multiplies the delay on each step. 2.0 doubles it.
	Factor float64
	// JitterFraction adds up to ±JitterFraction of random perturbation
	// to each computed delay, to avoid thundering-herd reconnects.
	JitterFraction float64
}

// Default is the poller's standard retry schedule: 100ms up to 30s.
var Default = Policy{
	Initial:        100 * time.Millisecond,
	Max:            30 * time.Second,
	Factor:         2.0,
	JitterFraction: 0.2,
}

// Sequence produces successive backoff delays starting at Initial and
// capped at Max, with jitter applied to every value it returns.
// Sequence is not safe for concurrent use — each poller owns one.
type Sequence struct {
	policy  Policy
	current time.Duration
}

// NewSequence starts a fresh sequence at policy.Initial.
func NewSequence(policy Policy) *Sequence {
	return &Sequence{policy: policy, current: policy.Initial}
}

// Next returns the current delay (with jitter applied) and advances the
// sequence for the following call.
func (s *Sequence) Next() time.Duration {
	d := jitter(s.current, s.policy.JitterFraction)
	next := time.Duration(float64(s.current) * s.policy.Factor)
	if next > s.policy.Max {
		next = s.policy.Max
	}
	s.current = next
	return d
}

// Reset returns the sequence to its initial delay, called after a
// successful operation.
func (s *Sequence) Reset() {
	s.current = s.policy.Initial
}

func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	delta := float64(d) * fraction
	offset := (rand.Float64()*2 - 1) * delta
	result := time.Duration(float64(d) + offset)
	if result < 0 {
		return 0
	}
	return result
}
