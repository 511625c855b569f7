package cache

import (
	"github.com/Keksclan/rawrcache/store"
	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"
)

// options holds the collaborators assembled via functional options.
type options struct {
	store          store.Store
	logger         *logr.Logger
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	background     bool
}

// Option configures a Cache.
type Option func(*options)

// WithStore sets the backing store demoted entries are written to. When
// omitted, a volatile [store.Memory] is used.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// WithLogger sets the logger. The default is klog's background logger.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithMetrics attaches Prometheus collectors created by [NewMetrics].
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider sets the provider used for eviction and reload spans.
// When omitted the global otel provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithBackgroundCleaner moves eviction onto a dedicated worker goroutine.
// Put and Get then only signal the worker instead of evicting inline, which
// lowers caller latency at the cost of a window in which resident memory can
// sit above the high watermark. Store failures during background passes are
// logged and counted rather than returned.
func WithBackgroundCleaner() Option {
	return func(o *options) { o.background = true }
}
