package redis

import (
	"errors"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed   State = 0 // calls pass through
	StateOpen     State = 1 // calls rejected until the cooldown elapses
	StateHalfOpen State = 2 // one probe call allowed through
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned while the breaker rejects calls.
var ErrBreakerOpen = errors.New("redis breaker open")

// Breaker trips after tripAfter consecutive failures and rejects calls
// for the cooldown. The first call after the cooldown probes the
// backend: success closes the breaker, failure reopens it.
//
// The scan cache sits behind one of these so an unreachable Redis costs
// a scan at most tripAfter timeouts, not one per symbol batch.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	tripAfter   int
	cooldown    time.Duration
	lastFailure time.Time

	OnStateChange func(from, to State) // optional
}

// NewBreaker creates a closed breaker.
func NewBreaker(tripAfter int, cooldown time.Duration) *Breaker {
	return &Breaker{tripAfter: tripAfter, cooldown: cooldown, state: StateClosed}
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		if time.Since(b.lastFailure) > b.cooldown {
			b.transition(StateHalfOpen)
		} else {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == StateHalfOpen || b.failures >= b.tripAfter {
			b.transition(StateOpen)
		}
		return err
	}
	if b.state == StateHalfOpen {
		b.transition(StateClosed)
	}
	b.failures = 0
	return nil
}

// CurrentState returns the breaker position.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if to == StateClosed {
		b.failures = 0
	}
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
