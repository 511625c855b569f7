package interceptors

import (
	"context"
	"testing"

	"github.com/go-logr/logr/testr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecoveryUnary_Panic_ReturnsInternal(t *testing.T) {
	for _, v := range []any{"boom", 42} {
		ic := RecoveryUnary(testr.New(t))
		handler := func(_ context.Context, _ any) (any, error) {
			panic(v)
		}

		resp, err := ic(t.Context(), "req", &grpc.UnaryServerInfo{FullMethod: "/rawrcache.Cache/Put"}, handler)
		if resp != nil {
			t.Fatalf("expected nil response, got %v", resp)
		}
		st, ok := status.FromError(err)
		if !ok {
			t.Fatalf("expected gRPC status error, got %v", err)
		}
		if st.Code() != codes.Internal {
			t.Fatalf("panic(%v): expected codes.Internal, got %v", v, st.Code())
		}
	}
}

func TestRecoveryUnary_NoPanic_Passthrough(t *testing.T) {
	ic := RecoveryUnary(testr.New(t))
	handler := func(_ context.Context, req any) (any, error) {
		return req, nil
	}

	resp, err := ic(t.Context(), "hello", &grpc.UnaryServerInfo{}, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "hello" {
		t.Fatalf("expected %q, got %v", "hello", resp)
	}
}
