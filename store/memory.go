package store

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Memory is a volatile in-process store standing in for a slow device.
// All reads and writes go through one critical section, so concurrent
// demotions and reloads never interleave their simulated I/O.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte

	readLatency  time.Duration
	writeLatency time.Duration

	reads  atomic.Int64
	writes atomic.Int64
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithWriteLatency makes every Write hold the device for d.
func WithWriteLatency(d time.Duration) MemoryOption {
	return func(m *Memory) { m.writeLatency = d }
}

// WithReadLatency makes every Read hold the device for d.
func WithReadLatency(d time.Duration) MemoryOption {
	return func(m *Memory) { m.readLatency = d }
}

// NewMemory creates an empty Memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{data: make(map[string][]byte)}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Read returns a copy of the bytes stored under key.
func (m *Memory) Read(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads.Add(1)
	if err := hold(ctx, m.readLatency); err != nil {
		return nil, false, err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Write stores a copy of val under key, replacing any previous value.
func (m *Memory) Write(ctx context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes.Add(1)
	if err := hold(ctx, m.writeLatency); err != nil {
		return err
	}
	v := bytes.Clone(val)
	if v == nil {
		v = []byte{}
	}
	m.data[key] = v
	return nil
}

// Reads returns the number of Read calls served so far.
func (m *Memory) Reads() int64 { return m.reads.Load() }

// Writes returns the number of Write calls served so far.
func (m *Memory) Writes() int64 { return m.writes.Load() }

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// hold simulates device latency. It gives up early only if ctx is done.
func hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
