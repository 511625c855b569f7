// Package store defines the backing-store contract used by the cache to hold
// demoted entries, together with a volatile reference device and adapters
// for real storage (files, Redis, S3-compatible object storage) and
// decorators (read buffering, compression, circuit breaking).
package store

import (
	"context"
	"strconv"
)

// Store persists demoted cache entries by key.
//
// Write is append-or-replace. Read returns the bytes previously written
// under key; the boolean is false on a miss. Implementations must return a
// non-nil error whenever they cannot complete the operation: a store that
// swallows a write loses the only copy of a demoted entry.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, val []byte) error
}

// Key returns the store key for an entry id.
func Key(id int) string {
	return strconv.Itoa(id)
}
