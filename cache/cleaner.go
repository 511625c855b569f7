package cache

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PassResult summarizes one eviction pass.
type PassResult struct {
	Demoted  int   // entries whose memory was released
	Freed    int64 // bytes released
	Resident int64 // resident bytes when the pass ended

	// Exhausted reports that the pass ran out of resident candidates before
	// reaching its target. It is not an error.
	Exhausted bool
}

// Evict runs an eviction pass down to the low watermark regardless of the
// current trigger state, and waits for it even in background mode.
func (c *Cache) Evict(ctx context.Context) (PassResult, error) {
	c.passMu.Lock()
	defer c.passMu.Unlock()
	return c.pass(ctx, c.cfg.LowWatermark)
}

// afterGrowth evaluates the eviction trigger after memory grew to resident.
func (c *Cache) afterGrowth(ctx context.Context, resident int64) error {
	if resident < c.cfg.HighWatermark {
		return nil
	}
	return c.reclaim(ctx, c.cfg.LowWatermark)
}

// pressureTarget is the resident size at which an entry of size bytes would
// be admitted again, capped at the low watermark.
func (c *Cache) pressureTarget(size int64) int64 {
	return min(c.cfg.LowWatermark, c.cfg.HighWatermark-size)
}

// reclaim drives resident memory down to target, inline or by waking the
// background worker.
func (c *Cache) reclaim(ctx context.Context, target int64) error {
	if c.bg != nil {
		c.bg.request(target)
		return nil
	}
	c.passMu.Lock()
	defer c.passMu.Unlock()
	_, err := c.pass(ctx, target)
	return err
}

// pass demotes resident entries, least used first, until resident memory is
// at or below target. Caller holds c.passMu.
func (c *Cache) pass(ctx context.Context, target int64) (PassResult, error) {
	var res PassResult
	if r := c.idx.residentBytes(); r <= target {
		res.Resident = r
		return res, nil
	}

	ctx, span := c.tracer.Start(ctx, "rawrcache.evict", trace.WithAttributes(
		attribute.Int64("rawrcache.target_bytes", target),
	))
	defer span.End()

	cands := c.candidates()
	c.log.V(2).Info("eviction pass", "candidates", len(cands), "target", target)

	resident := c.idx.residentBytes()
	for _, s := range cands {
		if resident <= target {
			break
		}
		freed, ok, err := c.demote(ctx, s.e)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "demote failed")
			c.metrics.storeError("write")
			c.metrics.pass(false)
			c.log.Error(err, "demote failed", "id", s.e.id)
			res.Resident = c.idx.residentBytes()
			return res, err
		}
		if !ok {
			continue
		}
		resident = c.idx.release(freed)
		res.Demoted++
		res.Freed += freed
		c.metrics.demoted()
		c.metrics.observeResident(resident)
		c.log.V(1).Info("demoted entry", "id", s.e.id, "size", freed, "uses", s.uses, "resident", resident)
	}

	res.Resident = resident
	res.Exhausted = resident > target
	if res.Exhausted {
		c.log.Info("eviction pass ran out of candidates", "resident", resident, "target", target)
	}
	c.metrics.pass(res.Exhausted)
	span.SetAttributes(
		attribute.Int("rawrcache.demoted", res.Demoted),
		attribute.Int64("rawrcache.freed_bytes", res.Freed),
		attribute.Bool("rawrcache.exhausted", res.Exhausted),
	)
	return res, nil
}

// candidates returns the resident entries ordered by usage count, then id.
// Zero-length entries are skipped since demoting them frees nothing.
func (c *Cache) candidates() []snapshot {
	entries := c.idx.scan()
	cands := make([]snapshot, 0, len(entries))
	for _, e := range entries {
		if e.size == 0 {
			continue
		}
		e.mu.Lock()
		if e.resident {
			cands = append(cands, snapshot{e: e, uses: e.uses})
		}
		e.mu.Unlock()
	}
	slices.SortFunc(cands, func(a, b snapshot) int {
		return cmp.Or(cmp.Compare(a.uses, b.uses), cmp.Compare(a.e.id, b.e.id))
	})
	return cands
}

// demote releases e's memory unless a concurrent pass already did.
func (c *Cache) demote(ctx context.Context, e *entry) (int64, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.resident {
		return 0, false, nil
	}
	freed, err := e.demote(ctx, c.store)
	if err != nil {
		return 0, false, err
	}
	return freed, true, nil
}

const noTarget = math.MaxInt64

// worker is the background cleaner. Requests coalesce: the worker runs one
// pass toward the lowest target requested since it last woke.
type worker struct {
	wake   chan struct{}
	target atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWorker() *worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	w.target.Store(noTarget)
	return w
}

func (w *worker) request(target int64) {
	for {
		cur := w.target.Load()
		if target >= cur || w.target.CompareAndSwap(cur, target) {
			break
		}
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) stop() {
	w.cancel()
	w.wg.Wait()
}

func (c *Cache) runCleaner() {
	w := c.bg
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.wake:
		}

		target := w.target.Swap(noTarget)
		if target == noTarget {
			continue
		}
		// One signal does not imply enough was reclaimed by earlier passes;
		// pass re-reads resident memory before doing any work.
		c.passMu.Lock()
		res, err := c.pass(w.ctx, target)
		c.passMu.Unlock()
		if err != nil {
			c.log.Error(err, "background eviction pass failed", "target", target)
			continue
		}
		c.log.V(2).Info("background eviction pass done", "demoted", res.Demoted, "resident", res.Resident)
	}
}
