package interceptors

import (
	"context"

	"github.com/Keksclan/rawrcache/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errRateLimited is allocated once to avoid per-request allocations on the hot path.
var errRateLimited = status.Error(codes.ResourceExhausted, "rate limit exceeded")

// RateLimitUnary returns a unary server interceptor that rejects requests
// with ResourceExhausted once the limiter selected for the method has been
// exhausted.
func RateLimitUnary(s *ratelimit.Set) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !s.Allow(info.FullMethod) {
			return nil, errRateLimited
		}
		return handler(ctx, req)
	}
}
