package cache

import (
	"context"
	"testing"

	"github.com/Keksclan/rawrcache/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetricsTrackEviction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := newTestCache(t, 1500, 1000, WithMetrics(m))
	ctx := context.Background()

	mustPut(t, c, blob(600, 'a'))
	mustPut(t, c, blob(600, 'b'))
	_, err := c.Put(ctx, blob(600, 'c'))
	require.ErrorIs(t, err, ErrUnavailable)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.demotions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passes))
	assert.Equal(t, 600.0, testutil.ToFloat64(m.resident))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.entries))

	mustGet(t, c, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.resident))

	n, err := testutil.GatherAndCount(reg, "rawrcache_demotions_total", "rawrcache_resident_bytes")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetricsCountStoreErrors(t *testing.T) {
	m := NewMetrics(nil)
	fs := &flakyStore{Memory: store.NewMemory()}
	fs.failWrites.Store(true)
	c := newTestCache(t, 100, 0, WithMetrics(m), WithStore(fs))

	mustPut(t, c, blob(50, 'a'))
	_, err := c.Evict(context.Background())
	require.ErrorIs(t, err, ErrStore)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeErrors.WithLabelValues("write")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.demotions))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.observeResident(1)
	m.observeEntries(1)
	m.rejectedPut()
	m.demoted()
	m.reloaded()
	m.pass(true)
	m.storeError("read")
}

func TestSpansForEvictionAndReload(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c := newTestCache(t, 1000, 0, WithTracerProvider(tp))
	id := mustPut(t, c, blob(10, 'a'))
	_, err := c.Evict(context.Background())
	require.NoError(t, err)
	mustGet(t, c, id)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"rawrcache.evict", "rawrcache.reload"}, names)
}
