package store

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compressed zstd-compresses values on their way to the inner store.
// The encoder and decoder are shared; EncodeAll and DecodeAll are safe for
// concurrent use.
type Compressed struct {
	inner Store
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressed wraps inner with zstd compression at the default level.
func NewCompressed(inner Store) (*Compressed, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Compressed{inner: inner, enc: enc, dec: dec}, nil
}

// Read decompresses the value stored under key.
func (c *Compressed) Read(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, err := c.inner.Read(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	out, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, false, fmt.Errorf("zstd decode %s: %w", key, err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, true, nil
}

// Write compresses val and stores it under key.
func (c *Compressed) Write(ctx context.Context, key string, val []byte) error {
	return c.inner.Write(ctx, key, c.enc.EncodeAll(val, nil))
}

// Close releases the encoder and decoder. The inner store is not closed.
func (c *Compressed) Close() error {
	c.dec.Close()
	return c.enc.Close()
}
