package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"lyricsync-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation, calls allowed
	StateOpen                  // Backend considered down, calls short-circuited
	StateHalfOpen              // One trial call in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Config holds circuit breaker configuration
type Config struct {
	Name            string        // Name for logging
	Threshold       int           // Consecutive failures before opening
	Cooldown        time.Duration // How long to stay open before a trial call
	HalfOpenTimeout time.Duration // How long a trial call may take before reopening

	// OnStateChange is called outside the lock after every transition
	OnStateChange func(name string, from, to State)
	// Now overrides time.Now
	Now func() time.Time
}

// CircuitBreaker guards calls to a backend that may be unavailable
// (the session store's Redis connection).
type CircuitBreaker struct {
	name            string
	state           State
	failures        int
	threshold       int
	cooldown        time.Duration
	halfOpenTimeout time.Duration
	openedAt        time.Time
	halfOpenStart   time.Time
	lastFailure     time.Time
	onStateChange   func(name string, from, to State)
	now             func() time.Time
	mu              sync.Mutex
}

// New creates a new circuit breaker
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenTimeout <= 0 {
		cfg.HalfOpenTimeout = 10 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &CircuitBreaker{
		name:            cfg.Name,
		state:           StateClosed,
		threshold:       cfg.Threshold,
		cooldown:        cfg.Cooldown,
		halfOpenTimeout: cfg.HalfOpenTimeout,
		onStateChange:   cfg.OnStateChange,
		now:             cfg.Now,
	}
}

// transition must be called with mu held; it returns the notification to fire after unlock
func (cb *CircuitBreaker) transition(to State) func() {
	from := cb.state
	if from == to {
		return func() {}
	}
	cb.state = to

	switch to {
	case StateOpen:
		cb.openedAt = cb.now()
	case StateHalfOpen:
		cb.halfOpenStart = cb.now()
	case StateClosed:
		cb.failures = 0
	}

	log.Infof("%s %s -> %s", logcolors.CircuitBreakerPrefix(cb.name), from, to)

	hook := cb.onStateChange
	name := cb.name
	return func() {
		if hook != nil {
			hook(name, from, to)
		}
	}
}

// Allow reports whether a call may proceed. In HALF-OPEN only the call that
// triggered the transition is allowed through.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	allowed, notify := cb.allow()
	cb.mu.Unlock()
	notify()
	return allowed
}

func (cb *CircuitBreaker) allow() (bool, func()) {
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cooldown {
			return true, cb.transition(StateHalfOpen)
		}
		return false, func() {}

	case StateHalfOpen:
		if cb.now().Sub(cb.halfOpenStart) >= cb.halfOpenTimeout {
			log.Warnf("%s Trial call timed out", logcolors.CircuitBreakerPrefix(cb.name))
			return false, cb.transition(StateOpen)
		}
		return false, func() {}

	default:
		return true, func() {}
	}
}

// RecordSuccess records a successful call
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	notify := func() {}
	if cb.state == StateHalfOpen {
		notify = cb.transition(StateClosed)
	} else if cb.state == StateClosed {
		cb.failures = 0
	}
	cb.mu.Unlock()
	notify()
}

// RecordFailure records a failed call
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.failures++
	cb.lastFailure = cb.now()

	notify := func() {}
	switch cb.state {
	case StateHalfOpen:
		notify = cb.transition(StateOpen)
	case StateClosed:
		if cb.failures >= cb.threshold {
			log.Warnf("%s Threshold reached (%d failures), cooldown %v",
				logcolors.CircuitBreakerPrefix(cb.name), cb.failures, cb.cooldown)
			notify = cb.transition(StateOpen)
		}
	}
	cb.mu.Unlock()
	notify()
}

// Execute runs fn if the circuit allows it and records the outcome.
// Returns ErrCircuitOpen without calling fn when the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset manually closes the circuit
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	notify := cb.transition(StateClosed)
	cb.failures = 0
	cb.lastFailure = time.Time{}
	cb.mu.Unlock()
	notify()
	log.Infof("%s Manually reset", logcolors.CircuitBreakerPrefix(cb.name))
}

// timeUntilRetry must be called with mu held
func (cb *CircuitBreaker) timeUntilRetry() time.Duration {
	var remaining time.Duration
	switch cb.state {
	case StateOpen:
		remaining = cb.cooldown - cb.now().Sub(cb.openedAt)
	case StateHalfOpen:
		remaining = cb.halfOpenTimeout - cb.now().Sub(cb.halfOpenStart)
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeUntilRetry returns the remaining cooldown (OPEN) or trial timeout
// (HALF-OPEN); 0 when closed
func (cb *CircuitBreaker) TimeUntilRetry() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.timeUntilRetry()
}

// Status is a point-in-time view of a circuit breaker for the status endpoint
type Status struct {
	Name           string     `json:"name"`
	State          State      `json:"state"`
	Failures       int        `json:"failures"`
	Threshold      int        `json:"threshold"`
	LastFailure    *time.Time `json:"lastFailure,omitempty"`
	RetryInSeconds float64    `json:"retryInSeconds"`
}

// Status returns circuit breaker statistics
func (cb *CircuitBreaker) Status() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := Status{
		Name:           cb.name,
		State:          cb.state,
		Failures:       cb.failures,
		Threshold:      cb.threshold,
		RetryInSeconds: cb.timeUntilRetry().Seconds(),
	}
	if !cb.lastFailure.IsZero() {
		lf := cb.lastFailure
		s.LastFailure = &lf
	}
	return s
}
