// Package cache provides a memory-bounded blob cache that spills its least
// used entries to a slower backing store once resident memory reaches a high
// watermark, and reloads them transparently on access.
//
// Entries are immutable byte blobs addressed by the integer id returned from
// [Cache.Put]. Ids are dense and never reused: the Nth successful Put returns
// N-1. Entries are never removed, only demoted to the backing store.
//
// Concurrency: the entry index is guarded by a reader/writer lock that is
// held only to append or to resolve an id; each entry carries its own lock
// for its contents, so readers of different entries never serialize on the
// index. Resident-size accounting is approximate under concurrency and may
// overshoot the high watermark by at most one entry.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Keksclan/rawrcache/store"
	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"
)

// Cache is a memory-bounded blob cache. All methods are safe for concurrent
// use.
type Cache struct {
	cfg     Config
	idx     *index
	store   store.Store
	log     logr.Logger
	metrics *Metrics
	tracer  trace.Tracer

	// passMu serializes eviction passes.
	passMu sync.Mutex
	bg     *worker // nil when evicting inline
	closed atomic.Bool
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries         int
	ResidentEntries int
	ResidentBytes   int64
	HighWatermark   int64
	LowWatermark    int64
}

// New creates a Cache. The configuration is validated; see [Config.Validate].
func New(cfg Config, opts ...Option) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.store == nil {
		o.store = store.NewMemory()
	}
	log := klog.Background()
	if o.logger != nil {
		log = *o.logger
	}
	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	c := &Cache{
		cfg:     cfg,
		idx:     newIndex(cfg.InitialCapacity),
		store:   o.store,
		log:     log.WithName("rawrcache"),
		metrics: o.metrics,
		tracer:  tp.Tracer("github.com/Keksclan/rawrcache/cache"),
	}
	if o.background {
		c.bg = newWorker()
		c.bg.wg.Add(1)
		go c.runCleaner()
	}
	return c, nil
}

// Put stores a copy of b and returns its id.
//
// Put applies admission control: when b does not fit under the high
// watermark it returns ErrUnavailable without inserting, and starts
// reclaiming memory so that a later retry can succeed. When b was admitted
// but the eviction pass it triggered failed, Put returns the valid id
// together with the store error; the entry itself is kept.
func (c *Cache) Put(ctx context.Context, b []byte) (int, error) {
	if c.closed.Load() {
		return -1, ErrClosed
	}
	size := int64(len(b))
	if size > c.cfg.HighWatermark {
		return -1, fmt.Errorf("%w: %d bytes, high watermark %d", ErrTooLarge, size, c.cfg.HighWatermark)
	}

	e, resident, ok := c.idx.admit(b, c.cfg.HighWatermark)
	if !ok {
		c.metrics.rejectedPut()
		c.log.V(1).Info("put rejected", "size", size, "resident", resident)
		if err := c.reclaim(ctx, c.pressureTarget(size)); err != nil {
			return -1, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return -1, ErrUnavailable
	}

	c.metrics.observeResident(resident)
	c.metrics.observeEntries(e.id + 1)
	c.log.V(1).Info("added entry", "id", e.id, "size", size)

	if err := c.afterGrowth(ctx, resident); err != nil {
		return e.id, err
	}
	return e.id, nil
}

// Get returns a copy of the blob stored under id. An unknown id is a normal
// miss: (nil, false, nil).
//
// A demoted entry is reloaded from the backing store while holding only that
// entry's lock. If keeping the reloaded bytes would exceed the high
// watermark, they are returned without being cached again and memory is
// reclaimed instead.
func (c *Cache) Get(ctx context.Context, id int) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}
	e, ok := c.idx.get(id)
	if !ok {
		c.log.Info("invalid id", "id", id)
		return nil, false, nil
	}

	e.mu.Lock()
	if e.resident {
		e.touch()
		out := bytes.Clone(e.value)
		e.mu.Unlock()
		return out, true, nil
	}

	b, err := c.reload(ctx, e)
	if err != nil {
		e.mu.Unlock()
		return nil, false, err
	}
	e.touch()

	resident, admitted := c.idx.grow(e.size, c.cfg.HighWatermark)
	if !admitted {
		e.mu.Unlock()
		c.log.V(1).Info("reloaded entry not kept, memory at capacity", "id", id, "size", e.size)
		return bytes.Clone(b), true, c.reclaim(ctx, c.pressureTarget(e.size))
	}
	e.materialize(b)
	out := bytes.Clone(e.value)
	e.mu.Unlock()

	c.metrics.observeResident(resident)
	return out, true, c.afterGrowth(ctx, resident)
}

// reload reads e back from the store. Caller holds e.mu.
func (c *Cache) reload(ctx context.Context, e *entry) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "rawrcache.reload", trace.WithAttributes(
		attribute.Int("rawrcache.id", e.id),
		attribute.Int64("rawrcache.size", e.size),
	))
	defer span.End()

	c.log.V(1).Info("reading entry from store", "id", e.id)
	b, err := e.load(ctx, c.store)
	if err != nil {
		span.RecordError(err)
		c.metrics.storeError("read")
		c.log.Error(err, "reload failed", "id", e.id)
		return nil, err
	}
	c.metrics.reloaded()
	return b, nil
}

// Len returns the number of entries ever admitted.
func (c *Cache) Len() int {
	return c.idx.len()
}

// ResidentBytes returns the accounted size of all in-memory entries.
func (c *Cache) ResidentBytes() int64 {
	return c.idx.residentBytes()
}

// Stats returns a snapshot of the cache. Each entry is inspected under its
// own lock, so the totals are not a single atomic view.
func (c *Cache) Stats() Stats {
	entries := c.idx.scan()
	st := Stats{
		Entries:       len(entries),
		HighWatermark: c.cfg.HighWatermark,
		LowWatermark:  c.cfg.LowWatermark,
	}
	for _, e := range entries {
		e.mu.Lock()
		if e.resident {
			st.ResidentEntries++
		}
		e.mu.Unlock()
	}
	st.ResidentBytes = c.idx.residentBytes()
	return st
}

// Close stops the background cleaner, if any. Subsequent Put and Get calls
// return ErrClosed. Close is safe to call multiple times.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.bg != nil {
		c.bg.stop()
	}
	return nil
}
