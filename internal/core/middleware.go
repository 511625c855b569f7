package core

import (
	"cmp"
	"slices"

	"google.golang.org/grpc"
)

// middleware is one unary interceptor with a deterministic execution order.
// Lower Order values run first.
type middleware struct {
	Unary grpc.UnaryServerInterceptor
	Order int
}

// MiddlewareBuilder collects interceptors and produces them in execution
// order, independent of registration order.
type MiddlewareBuilder struct {
	entries []middleware
}

// Add registers an interceptor with the given order. Nil interceptors are
// ignored.
func (b *MiddlewareBuilder) Add(order int, unary grpc.UnaryServerInterceptor) {
	if unary == nil {
		return
	}
	b.entries = append(b.entries, middleware{Unary: unary, Order: order})
}

// Build sorts the collected interceptors by Order; equal orders keep their
// registration order.
func (b *MiddlewareBuilder) Build() []grpc.UnaryServerInterceptor {
	slices.SortStableFunc(b.entries, func(a, c middleware) int {
		return cmp.Compare(a.Order, c.Order)
	})

	unary := make([]grpc.UnaryServerInterceptor, 0, len(b.entries))
	for _, m := range b.entries {
		unary = append(unary, m.Unary)
	}
	return unary
}
