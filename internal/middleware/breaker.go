// Package middleware implements the client-embeddable reliability layer
// described in spec 4.K-4.N: a three-state circuit breaker, a health
// prober, a supervised child process, and a router that wraps a caller's
// direct-send function with proxy-first/fallback-on-failure logic.
package middleware

import (
	"sync"

	"github.com/relayplane/gateway/internal/domain/service"
)

// BreakerState is one of the three circuit-breaker states (spec §3).
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// String renders a human-readable label.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// StateChange is published to the breaker's single observer on every
// transition (spec 9: typed observer slot, not a global event bus).
type StateChange struct {
	From BreakerState
	To   BreakerState
}

// Observer receives breaker state-change events, invoked synchronously on
// the goroutine that recorded the success/failure (spec §5).
type Observer func(StateChange)

// Breaker is the middleware-side circuit breaker (component K). It differs
// from the gateway-side CooldownManager (component H): it is a three-state
// FSM keyed to a single proxy target, not a per-upstream-provider failure
// tally, and drives the health prober (L) and middleware router (N).
type Breaker struct {
	mu sync.Mutex

	clock service.Clock

	state              BreakerState
	failureCount       int
	failureThreshold   int
	resetTimeoutMillis int64
	requestTimeoutMillis int64
	openedAt           int64

	observer Observer
}

// NewBreaker builds a breaker with the given failure threshold and
// reset/request timeouts (milliseconds).
func NewBreaker(clock service.Clock, failureThreshold int, resetTimeoutMillis, requestTimeoutMillis int64) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeoutMillis <= 0 {
		resetTimeoutMillis = 30_000
	}
	return &Breaker{
		clock:                clock,
		state:                BreakerClosed,
		failureThreshold:     failureThreshold,
		resetTimeoutMillis:   resetTimeoutMillis,
		requestTimeoutMillis: requestTimeoutMillis,
	}
}

// SetObserver installs the single state-change observer, replacing any
// previous one.
func (b *Breaker) SetObserver(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observer = o
}

// RequestTimeoutMillis returns the configured per-request deadline.
func (b *Breaker) RequestTimeoutMillis() int64 {
	return b.requestTimeoutMillis
}

// State returns the current state, first checking (with a side effect) for
// an OPEN -> HALF-OPEN transition once the reset timeout has elapsed
// (invariant 4). No timer is required: the check happens on observation.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Breaker) stateLocked() BreakerState {
	if b.state == BreakerOpen && b.clock.NowMillis()-b.openedAt >= b.resetTimeoutMillis {
		b.transition(BreakerHalfOpen)
	}
	return b.state
}

// IsHealthy reports whether the breaker currently permits direct calls to
// the proxy (CLOSED or HALF-OPEN).
func (b *Breaker) IsHealthy() bool {
	s := b.State()
	return s == BreakerClosed || s == BreakerHalfOpen
}

// RecordSuccess clears the failure count and, from any state, closes the
// breaker (invariant: any success in any state => CLOSED).
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stateLocked()
	b.failureCount = 0
	if b.state != BreakerClosed {
		b.transition(BreakerClosed)
	}
}

// RecordFailure increments the failure count. From HALF-OPEN any failure
// re-opens immediately; from CLOSED it opens at exactly failureThreshold
// (invariant 2: monotonic breaker).
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.stateLocked()

	if current == BreakerHalfOpen {
		b.failureCount++
		b.openedAt = b.clock.NowMillis()
		b.transition(BreakerOpen)
		return
	}

	b.failureCount++
	if b.failureCount >= b.failureThreshold {
		b.openedAt = b.clock.NowMillis()
		b.transition(BreakerOpen)
	}
}

// Reset forces the breaker back to CLOSED, publishing a transition if the
// state actually changes.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	if b.state != BreakerClosed {
		b.transition(BreakerClosed)
	}
}

// transition must be called with mu held. It updates state and invokes the
// observer synchronously before returning (spec §5).
func (b *Breaker) transition(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.observer != nil {
		b.observer(StateChange{From: from, To: to})
	}
}
