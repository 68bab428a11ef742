// Package circuitbreaker implements a circuit breaker used to guard the
// external price and rate providers. A tripped breaker turns provider calls
// into immediate failures, which the price feed degrades into its usual
// "unavailable" results without waiting out the provider timeout.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/wallet-insight/internal/logging"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means requests flow normally
	StateClosed State = "closed"
	// StateOpen means requests fail fast
	StateOpen State = "open"
	// StateHalfOpen means a limited number of probe requests are allowed
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned when the breaker rejects a call.
var ErrOpen = errors.New("circuit breaker is open")

// Config configures a circuit breaker
type Config struct {
	Name string
	// MaxConsecutiveFailures trips the breaker open.
	MaxConsecutiveFailures int
	// CoolDown is how long the breaker stays open before probing.
	CoolDown time.Duration
	// HalfOpenProbes is how many successful probes close the breaker.
	HalfOpenProbes int
}

// DefaultConfig returns a sensible configuration for a provider breaker
func DefaultConfig(name string) Config {
	return Config{
		Name:                   name,
		MaxConsecutiveFailures: 5,
		CoolDown:               30 * time.Second,
		HalfOpenProbes:         2,
	}
}

// CircuitBreaker tracks consecutive failures of a single provider.
type CircuitBreaker struct {
	cfg Config

	mu               sync.Mutex
	state            State
	consecutiveFails int
	probeSuccesses   int
	probesInFlight   int
	openedAt         time.Time
}

// New creates a circuit breaker in the closed state
func New(cfg Config) *CircuitBreaker {
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = 5
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Execute runs fn under breaker protection, returning ErrOpen without
// invoking fn when the breaker rejects the call.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err)
	return err
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.openedAt) < cb.cfg.CoolDown {
			return ErrOpen
		}
		cb.transition(StateHalfOpen)
		cb.probesInFlight++
		return nil
	case StateHalfOpen:
		if cb.probesInFlight >= cb.cfg.HalfOpenProbes {
			return ErrOpen
		}
		cb.probesInFlight++
		return nil
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.probesInFlight--
	}

	if err != nil {
		cb.consecutiveFails++
		switch cb.state {
		case StateHalfOpen:
			cb.transition(StateOpen)
		case StateClosed:
			if cb.consecutiveFails >= cb.cfg.MaxConsecutiveFailures {
				cb.transition(StateOpen)
			}
		}
		return
	}

	cb.consecutiveFails = 0
	if cb.state == StateHalfOpen {
		cb.probeSuccesses++
		if cb.probeSuccesses >= cb.cfg.HalfOpenProbes {
			cb.transition(StateClosed)
		}
	}
}

// transition changes state; callers hold the lock.
func (cb *CircuitBreaker) transition(next State) {
	if cb.state == next {
		return
	}
	cb.state = next
	cb.probeSuccesses = 0
	cb.probesInFlight = 0
	if next == StateOpen {
		cb.openedAt = time.Now()
	}
	logging.WithFields(map[string]interface{}{
		"breaker": cb.cfg.Name,
		"state":   string(next),
	}).Info("Circuit breaker state change")
}
