// Package poll provides the bounded busy-wait used for every hardware
// handshake in the HDCP engine.
//
// Hardware state is never waited on without a bound: a Poller evaluates its
// condition at most Attempts times and reports false once the budget is spent.
// Callers treat exhaustion as an ordinary failure.
package poll

import "time"

// DefaultAttempts is the iteration budget used by the cipher handshakes
// (An capture, Ri ready, SHA-1 ready, V comparison).
const DefaultAttempts = 1500

// Sleeper pauses between attempts.
// Allows injection of a no-op or recording sleeper for testing.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(d time.Duration)

// Sleep calls f(d).
func (f SleeperFunc) Sleep(d time.Duration) {
	f(d)
}

type timeSleeper struct{}

func (timeSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}

// DefaultSleeper sleeps on the wall clock.
var DefaultSleeper Sleeper = timeSleeper{}

// Poller evaluates a condition a bounded number of times.
type Poller struct {
	// Attempts is the maximum number of times the condition is evaluated.
	// Zero or negative values mean the condition is never evaluated.
	Attempts int

	// Interval is slept between failed attempts. Zero means back-to-back
	// evaluation with no delay.
	Interval time.Duration

	// Sleeper is used for Interval. If nil, DefaultSleeper is used.
	Sleeper Sleeper
}

// New creates a Poller with the given bound and per-attempt interval.
func New(attempts int, interval time.Duration) Poller {
	return Poller{Attempts: attempts, Interval: interval}
}

// Until evaluates cond until it returns true or the attempt budget is
// exhausted. It returns true if cond was satisfied.
func (p Poller) Until(cond func() bool) bool {
	_, ok := p.Count(cond)
	return ok
}

// Count is like Until but also reports how many times cond was evaluated.
func (p Poller) Count(cond func() bool) (int, bool) {
	sleeper := p.Sleeper
	if sleeper == nil {
		sleeper = DefaultSleeper
	}

	for i := 1; i <= p.Attempts; i++ {
		if cond() {
			return i, true
		}
		if p.Interval > 0 && i < p.Attempts {
			sleeper.Sleep(p.Interval)
		}
	}
	return p.Attempts, false
}

// Until is a convenience wrapper for New(attempts, interval).Until(cond).
func Until(attempts int, interval time.Duration, cond func() bool) bool {
	return New(attempts, interval).Until(cond)
}
