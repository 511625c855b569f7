package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/Keksclan/rawrcache/store"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Read(context.Context, string) ([]byte, bool, error) { return nil, false, errBroken }
func (brokenStore) Write(context.Context, string, []byte) error        { return errBroken }

func TestStore_SpansForReadAndWrite(t *testing.T) {
	cfg, rec := newTestConfig(t)
	s := NewStore(store.NewMemory(), cfg)

	if err := s.Write(t.Context(), "7", []byte("abc")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, ok, err := s.Read(t.Context(), "7")
	if err != nil || !ok || string(b) != "abc" {
		t.Fatalf("read = (%q, %v, %v), want (abc, true, nil)", b, ok, err)
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "store.write" || spans[1].Name() != "store.read" {
		t.Fatalf("unexpected span names %q, %q", spans[0].Name(), spans[1].Name())
	}
	for _, sp := range spans {
		if sp.SpanKind() != trace.SpanKindClient {
			t.Fatalf("%s: expected SpanKindClient, got %v", sp.Name(), sp.SpanKind())
		}
		assertAttr(t, sp.Attributes(), "rawrcache.key", "7")
		assertAttr(t, sp.Attributes(), "rawrcache.bytes", "3")
	}
	assertAttr(t, spans[1].Attributes(), "rawrcache.hit", "true")
}

func TestStore_RecordsErrors(t *testing.T) {
	cfg, rec := newTestConfig(t)
	s := NewStore(brokenStore{}, cfg)

	if err := s.Write(t.Context(), "1", nil); !errors.Is(err, errBroken) {
		t.Fatalf("expected errBroken, got %v", err)
	}
	if _, _, err := s.Read(t.Context(), "1"); !errors.Is(err, errBroken) {
		t.Fatalf("expected errBroken, got %v", err)
	}

	for _, sp := range rec.Ended() {
		if sp.Status().Code != codes.Error {
			t.Fatalf("%s: expected Error status, got %v", sp.Name(), sp.Status().Code)
		}
	}
}
