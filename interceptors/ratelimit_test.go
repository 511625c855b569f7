package interceptors

import (
	"context"
	"testing"

	"github.com/Keksclan/rawrcache/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// okHandler is a trivial handler that always succeeds.
func okHandler(_ context.Context, _ any) (any, error) { return "ok", nil }

func codeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	st, _ := status.FromError(err)
	return st.Code()
}

func TestRateLimitUnary_GlobalOnly(t *testing.T) {
	ic := RateLimitUnary(ratelimit.NewSet(ratelimit.NewLimiter(0.001, 2), nil))
	info := &grpc.UnaryServerInfo{FullMethod: "/rawrcache.Cache/Get"}

	for i := range 2 {
		if _, err := ic(t.Context(), nil, info, okHandler); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	_, err := ic(t.Context(), nil, info, okHandler)
	if codeOf(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", codeOf(err))
	}
}

func TestRateLimitUnary_PerMethod(t *testing.T) {
	ic := RateLimitUnary(ratelimit.NewSet(
		ratelimit.NewLimiter(1000, 100),
		map[string]*ratelimit.Limiter{"/rawrcache.Cache/Put": ratelimit.NewLimiter(0.001, 2)},
	))
	putInfo := &grpc.UnaryServerInfo{FullMethod: "/rawrcache.Cache/Put"}

	for i := range 2 {
		if _, err := ic(t.Context(), nil, putInfo, okHandler); err != nil {
			t.Fatalf("put %d: unexpected error: %v", i, err)
		}
	}
	_, err := ic(t.Context(), nil, putInfo, okHandler)
	if codeOf(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted for put, got %v", codeOf(err))
	}

	getInfo := &grpc.UnaryServerInfo{FullMethod: "/rawrcache.Cache/Get"}
	if _, err := ic(t.Context(), nil, getInfo, okHandler); err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
}
