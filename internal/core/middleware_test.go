package core

import (
	"context"
	"slices"
	"testing"

	"google.golang.org/grpc"
)

func tagged(log *[]string, tag string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		*log = append(*log, tag)
		return handler(ctx, req)
	}
}

// run executes the chain the way grpc.ChainUnaryInterceptor does.
func run(t *testing.T, unary []grpc.UnaryServerInterceptor, log *[]string) {
	t.Helper()
	curr := func(_ context.Context, req any) (any, error) {
		*log = append(*log, "handler")
		return req, nil
	}
	for i := len(unary) - 1; i >= 0; i-- {
		next, ic := curr, unary[i]
		curr = func(ctx context.Context, req any) (any, error) {
			return ic(ctx, req, &grpc.UnaryServerInfo{}, next)
		}
	}
	if _, err := curr(t.Context(), "req"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildOrdersByPriority(t *testing.T) {
	var log []string
	var b MiddlewareBuilder
	b.Add(300, tagged(&log, "ratelimit"))
	b.Add(100, tagged(&log, "recovery"))
	b.Add(200, tagged(&log, "tracing"))
	b.Add(50, nil)

	run(t, b.Build(), &log)

	want := []string{"recovery", "tracing", "ratelimit", "handler"}
	if !slices.Equal(log, want) {
		t.Fatalf("got %v, want %v", log, want)
	}
}

func TestBuildStableForEqualOrder(t *testing.T) {
	var log []string
	var b MiddlewareBuilder
	for _, tag := range []string{"first", "second", "third"} {
		b.Add(1000, tagged(&log, tag))
	}

	run(t, b.Build(), &log)

	want := []string{"first", "second", "third", "handler"}
	if !slices.Equal(log, want) {
		t.Fatalf("got %v, want %v", log, want)
	}
}

func TestBuildServerOptions(t *testing.T) {
	if got := BuildServerOptions(nil); len(got) != 0 {
		t.Fatalf("expected no options, got %d", len(got))
	}
	var log []string
	if got := BuildServerOptions([]grpc.UnaryServerInterceptor{tagged(&log, "a")}, grpc.MaxRecvMsgSize(1<<20)); len(got) != 2 {
		t.Fatalf("expected 2 options, got %d", len(got))
	}
}
