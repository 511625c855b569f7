package store

import (
	"bytes"
	"context"

	"github.com/dgraph-io/ristretto/v2"
)

// Buffered fronts a slow Store with a bounded ristretto read buffer. The
// buffer is never authoritative: every write goes to the inner store first,
// and anything ristretto declines or evicts is simply read from the inner
// store again. Keys written by the cache are never rewritten with different
// contents, so buffered values cannot go stale.
type Buffered struct {
	inner Store
	rc    *ristretto.Cache[string, []byte]
}

// NewBuffered wraps inner with a read buffer holding at most maxBytes of
// payload.
func NewBuffered(inner Store, maxBytes int64) (*Buffered, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxBytes/64, 100) * 10,
		MaxCost:     maxBytes,
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Buffered{inner: inner, rc: rc}, nil
}

// Read serves key from the buffer when present, otherwise from the inner
// store, buffering the result.
func (b *Buffered) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := b.rc.Get(key); ok {
		return bytes.Clone(v), true, nil
	}
	v, ok, err := b.inner.Read(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	b.buffer(key, v)
	return v, true, nil
}

// Write stores val in the inner store and, on success, in the buffer.
func (b *Buffered) Write(ctx context.Context, key string, val []byte) error {
	if err := b.inner.Write(ctx, key, val); err != nil {
		return err
	}
	b.buffer(key, val)
	return nil
}

// Close releases the buffer. The inner store is not closed.
func (b *Buffered) Close() {
	b.rc.Close()
}

func (b *Buffered) buffer(key string, val []byte) {
	b.rc.Set(key, bytes.Clone(val), max(int64(len(val)), 1))
	b.rc.Wait()
}
