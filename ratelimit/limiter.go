// Package ratelimit provides token-bucket rate limiters backed by
// golang.org/x/time/rate, used to protect a cache server from clients that
// would otherwise keep it permanently at its high watermark.
package ratelimit

import "golang.org/x/time/rate"

// Limiter wraps a token-bucket limiter that decides whether an incoming
// request should be allowed.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps requests per second with the
// given burst size.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a single request may proceed.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Set selects a limiter per RPC method, falling back to a global one.
// A Set is immutable after construction and safe for concurrent use.
type Set struct {
	global  *Limiter
	methods map[string]*Limiter
}

// NewSet creates a Set. global may be nil, in which case methods without
// their own limiter are not limited.
func NewSet(global *Limiter, methods map[string]*Limiter) *Set {
	m := make(map[string]*Limiter, len(methods))
	for k, v := range methods {
		m[k] = v
	}
	return &Set{global: global, methods: m}
}

// Allow reports whether a request for fullMethod may proceed. A method
// limiter takes precedence over the global one; it does not also consume a
// global token.
func (s *Set) Allow(fullMethod string) bool {
	if l, ok := s.methods[fullMethod]; ok {
		return l.Allow()
	}
	if s.global == nil {
		return true
	}
	return s.global.Allow()
}

// Empty reports whether the Set limits nothing.
func (s *Set) Empty() bool {
	return s.global == nil && len(s.methods) == 0
}
