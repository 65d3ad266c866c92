package llm

import (
	"sync"
	"time"
)

// BreakerState is the availability state of one provider.
type BreakerState int

const (
	// BreakerClosed is normal operation; calls pass through.
	BreakerClosed BreakerState = iota
	// BreakerOpen means the provider is considered down; calls are routed
	// elsewhere until the recovery timeout elapses.
	BreakerOpen
	// BreakerHalfOpen allows one probe call to check recovery.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker tracks consecutive failures per provider so the factory can
// route attempts away from a failing service. It gates provider selection
// only; it never retries a call on its own.
type CircuitBreaker struct {
	name             string
	state            BreakerState
	failures         int
	lastFailure      time.Time
	failureThreshold int
	recoveryTimeout  time.Duration
	mu               sync.Mutex

	// now is injectable for tests.
	now func() time.Time
}

// NewCircuitBreaker creates a breaker that opens after 3 consecutive
// failures and probes again after 60 seconds.
func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		state:            BreakerClosed,
		failureThreshold: 3,
		recoveryTimeout:  60 * time.Second,
		now:              time.Now,
	}
}

// Name returns the breaker's provider name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Allow reports whether a call to this provider should proceed. An open
// breaker past its recovery timeout transitions to half-open and allows one
// probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed, BreakerHalfOpen:
		return true
	case BreakerOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.recoveryTimeout {
			cb.state = BreakerHalfOpen
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess resets the failure count and closes the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = BreakerClosed
}

// RecordFailure increments the failure count and opens the breaker once the
// threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	if cb.failures >= cb.failureThreshold {
		cb.state = BreakerOpen
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
