// Package core holds server wiring shared by the public rawrcache package.
package core

import "google.golang.org/grpc"

// BuildServerOptions turns an ordered interceptor slice into grpc.ServerOption
// values for grpc.NewServer. The first interceptor is the outermost.
func BuildServerOptions(unary []grpc.UnaryServerInterceptor, extra ...grpc.ServerOption) []grpc.ServerOption {
	opts := make([]grpc.ServerOption, 0, len(extra)+1)
	if len(unary) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(unary...))
	}
	return append(opts, extra...)
}
