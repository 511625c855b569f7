// Package rawrcache serves a memory-bounded, spill-to-store blob cache over
// gRPC.
//
// The cache engine lives in the cache package and can be embedded directly.
// This package wraps it in a [Server] with panic recovery, OpenTelemetry
// tracing and rate limiting installed as gRPC interceptors, and can assemble
// the whole stack from a YAML file via [LoadConfig].
//
//	c, _ := cache.New(cache.DefaultConfig(64<<20))
//	srv := rawrcache.NewServer(
//		rawrcache.WithCache(c),
//		rawrcache.WithRecovery(),
//		rawrcache.WithMethodRateLimit(rpc.MethodPut, 500, 100),
//	)
//	_ = srv.Serve(lis)
package rawrcache
