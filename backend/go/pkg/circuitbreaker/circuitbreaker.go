package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
)

// State of a circuit breaker.
type State int

const (
	// Closed lets every request through.
	Closed State = iota
	// Open rejects requests until the timeout elapses.
	Open
	// HalfOpen lets trial requests through to probe recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned without calling the request while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls to a dependency that may fail repeatedly.
type CircuitBreaker interface {
	// Execute runs req unless the circuit is open.
	Execute(req func() (interface{}, error)) (interface{}, error)
	State() State
}

// Option customises a breaker.
type Option func(*breaker)

// OnStateChange registers a callback invoked (outside the lock) on every transition.
func OnStateChange(fn func(from, to State)) Option {
	return func(b *breaker) { b.onChange = fn }
}

type breaker struct {
	failureThreshold uint32        // consecutive failures that open the circuit
	successThreshold uint32        // half-open successes needed to close it again
	timeout          time.Duration // how long the circuit stays open

	state     State
	failures  uint32 // consecutive failures while closed
	successes uint32 // consecutive successes while half-open
	openedAt  time.Time // start of the current open period

	onChange func(from, to State) // optional, see OnStateChange
	now      func() time.Time
	mu       sync.Mutex
}

// New creates a breaker that opens after failureThreshold consecutive
// failures, stays open for timeout, and closes again after successThreshold
// consecutive successes in half-open state.
func New(failureThreshold, successThreshold uint32, timeout time.Duration, opts ...Option) CircuitBreaker {
	b := &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		state:            Closed,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromConfig builds a breaker from its YAML settings.
func FromConfig(cfg config.CircuitBreakerConfig, opts ...Option) (CircuitBreaker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	return New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout, opts...), nil
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	b.mu.Lock()
	from := b.state
	if b.state == Open && b.now().Sub(b.openedAt) > b.timeout {
		b.setState(HalfOpen)
	}
	state := b.state
	b.mu.Unlock()
	b.notify(from, state)

	if state == Open {
		return nil, ErrCircuitOpen
	}

	res, err := req()

	b.mu.Lock()
	before := b.state
	if err != nil {
		b.onFailure()
	} else {
		b.onSuccess()
	}
	after := b.state
	b.mu.Unlock()
	b.notify(before, after)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (b *breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.setState(Closed)
		}
	case Closed:
		b.failures = 0
	}
}

func (b *breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.setState(Open)
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.setState(Open)
		}
	}
}

// setState must be called with mu held.
func (b *breaker) setState(s State) {
	b.state = s
	b.failures = 0
	b.successes = 0
	if s == Open {
		b.openedAt = b.now()
	}
}

func (b *breaker) notify(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(from, to)
	}
}
