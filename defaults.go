package rawrcache

import "github.com/Keksclan/rawrcache/rpc"

// DefaultOptions returns the recommended set of options for production use:
// panic recovery, plus a Put limit that keeps a single client from pinning
// the cache at its high watermark.
func DefaultOptions() []Option {
	return []Option{
		WithRecovery(),
		WithMethodRateLimit(rpc.MethodPut, 1000, 200),
	}
}
