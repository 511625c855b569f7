// Package breaker provides a minimal, thread-safe circuit breaker used to
// stop hammering a failing backing store.
//
// States:
//   - Closed: calls flow normally; consecutive failures are counted.
//   - Open: calls are refused with ErrOpen; after OpenTimeout the breaker
//     moves to HalfOpen.
//   - HalfOpen: a limited number of probe calls go through; enough
//     successes close the breaker, any failure reopens it.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Do while the breaker refuses calls.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the current circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns the lower-case state name.
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

// Config holds the circuit breaker parameters.
type Config struct {
	// FailureThreshold is the number of consecutive failures in Closed state
	// before the breaker trips to Open.
	FailureThreshold int

	// OpenTimeout is how long the breaker stays Open before probing.
	OpenTimeout time.Duration

	// HalfOpenMaxSuccess is the number of consecutive successful probes
	// required to close the breaker again.
	HalfOpenMaxSuccess int
}

// DefaultConfig trips after 5 consecutive failures, probes after 5 seconds
// and closes after 2 successful probes.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:   5,
		OpenTimeout:        5 * time.Second,
		HalfOpenMaxSuccess: 2,
	}
}

// Breaker is a minimal circuit breaker. All methods are safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state     State
	failures  int // consecutive failures in Closed
	successes int // consecutive successes in HalfOpen
	probes    int // probes admitted in the current HalfOpen window
	openedAt  time.Time
	nowFunc   func() time.Time
}

// New creates a Breaker with the given configuration.
func New(cfg Config) *Breaker {
	return &Breaker{
		cfg:     cfg,
		state:   Closed,
		nowFunc: time.Now,
	}
}

// State returns the current state. An Open breaker whose timeout elapsed
// reports HalfOpen.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpenTimeout()
	return b.state
}

// Allow reports whether a call may proceed, reserving a probe slot when
// HalfOpen.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkOpenTimeout()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.probes >= b.cfg.HalfOpenMaxSuccess {
			return false
		}
		b.probes++
		return true
	default:
		return false
	}
}

// Do runs fn when the breaker allows it and records the outcome. Errors for
// which isFailure returns false are passed through without counting against
// the breaker; a nil isFailure counts every error.
func (b *Breaker) Do(fn func() error, isFailure func(error) bool) error {
	if !b.Allow() {
		return ErrOpen
	}
	err := fn()
	if err != nil && (isFailure == nil || isFailure(err)) {
		b.OnFailure()
		return err
	}
	b.OnSuccess()
	return err
}

// OnSuccess records a successful call.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxSuccess {
			b.state = Closed
			b.failures = 0
			b.successes = 0
			b.probes = 0
		}
	}
}

// OnFailure records a failed call.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.toOpen()
		}
	case HalfOpen:
		b.toOpen()
	}
}

// checkOpenTimeout moves Open to HalfOpen once the timeout has elapsed.
// Must be called with b.mu held.
func (b *Breaker) checkOpenTimeout() {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.state = HalfOpen
		b.successes = 0
		b.probes = 0
	}
}

func (b *Breaker) toOpen() {
	b.state = Open
	b.openedAt = b.now()
	b.successes = 0
	b.probes = 0
}

func (b *Breaker) now() time.Time {
	if b.nowFunc != nil {
		return b.nowFunc()
	}
	return time.Now()
}
