package redis

import (
	"errors"
	"sync"
	"time"
)

// State is the breaker's position.
type State int

const (
	Closed   State = iota // requests pass through
	Open                  // requests rejected without touching Redis
	HalfOpen              // one probe request allowed
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker rejects a call.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker trips after maxFailures consecutive errors and rejects calls
// for a cooldown period. The first call after the cooldown runs as a
// probe: success closes the breaker, failure reopens it.
//
// This keeps the scan loop from stalling on a dead Redis while letting
// publishing resume on its own once Redis is back.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	cooldown    time.Duration
	lastFailure time.Time

	// OnStateChange is called on every transition. Optional.
	OnStateChange func(from, to State)
}

// NewBreaker builds a breaker in the closed state.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{maxFailures: maxFailures, cooldown: cooldown}
}

// Do runs fn unless the breaker is open. Errors from fn count toward
// tripping; ErrOpen is returned without running fn at all.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.state == Open {
		if time.Since(b.lastFailure) <= b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.transition(HalfOpen)
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == HalfOpen || b.failures >= b.maxFailures {
			b.transition(Open)
		}
		return err
	}

	if b.state == HalfOpen {
		b.transition(Closed)
	}
	b.failures = 0
	return nil
}

// State reports the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// transition requires b.mu held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to == Closed {
		b.failures = 0
	}
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
