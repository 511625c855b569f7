package store

import (
	"context"
	"errors"

	"github.com/Keksclan/rawrcache/breaker"
)

// ErrCircuitOpen is returned by a Guarded store while its breaker refuses
// calls.
var ErrCircuitOpen = errors.New("backing store circuit open")

// Guarded puts a circuit breaker in front of a store so that a failing
// device is not hit by every eviction pass and reload. Misses are not
// failures; context cancellation is not held against the store either.
type Guarded struct {
	inner Store
	br    *breaker.Breaker
}

// NewGuarded wraps inner with a breaker configured by cfg.
func NewGuarded(inner Store, cfg breaker.Config) *Guarded {
	return &Guarded{inner: inner, br: breaker.New(cfg)}
}

// State reports the breaker state.
func (g *Guarded) State() breaker.State {
	return g.br.State()
}

// Read reads through the breaker.
func (g *Guarded) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		val []byte
		ok  bool
	)
	err := g.br.Do(func() error {
		var err error
		val, ok, err = g.inner.Read(ctx, key)
		return err
	}, countsAgainst)
	return val, ok, translate(err)
}

// Write writes through the breaker.
func (g *Guarded) Write(ctx context.Context, key string, val []byte) error {
	return translate(g.br.Do(func() error {
		return g.inner.Write(ctx, key, val)
	}, countsAgainst))
}

func countsAgainst(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func translate(err error) error {
	if errors.Is(err, breaker.ErrOpen) {
		return ErrCircuitOpen
	}
	return err
}
