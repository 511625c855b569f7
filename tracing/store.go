package tracing

import (
	"context"

	"github.com/Keksclan/rawrcache/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store wraps a backing store so that every read and write produces a
// client span. Spans nest under the cache's eviction and reload spans.
type Store struct {
	inner  store.Store
	tracer trace.Tracer
}

// NewStore wraps inner. A nil cfg uses the global tracer provider.
func NewStore(inner store.Store, cfg *Config) *Store {
	return &Store{inner: inner, tracer: cfg.tracer()}
}

// Read traces inner.Read as "store.read".
func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := s.tracer.Start(ctx, "store.read", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rawrcache.key", key)))
	defer span.End()

	b, ok, err := s.inner.Read(ctx, key)
	span.SetAttributes(attribute.Bool("rawrcache.hit", ok), attribute.Int("rawrcache.bytes", len(b)))
	end(span, err)
	return b, ok, err
}

// Write traces inner.Write as "store.write".
func (s *Store) Write(ctx context.Context, key string, val []byte) error {
	ctx, span := s.tracer.Start(ctx, "store.write", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rawrcache.key", key), attribute.Int("rawrcache.bytes", len(val))))
	defer span.End()

	err := s.inner.Write(ctx, key, val)
	end(span, err)
	return err
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
