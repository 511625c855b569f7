package ratelimit_test

import (
	"testing"

	"github.com/Keksclan/rawrcache/ratelimit"
)

func TestLimiter_AllowUnderLimit(t *testing.T) {
	// burst=5 means the first 5 calls must succeed.
	l := ratelimit.NewLimiter(1, 5)
	for i := range 5 {
		if !l.Allow() {
			t.Fatalf("expected Allow() == true for request %d", i)
		}
	}
}

func TestLimiter_BlocksWhenBurstExhausted(t *testing.T) {
	l := ratelimit.NewLimiter(0.001, 2)
	l.Allow()
	l.Allow()

	if l.Allow() {
		t.Fatal("expected Allow() == false after burst exhausted")
	}
}

func TestSet_MethodOverridesGlobal(t *testing.T) {
	s := ratelimit.NewSet(
		ratelimit.NewLimiter(1000, 100),
		map[string]*ratelimit.Limiter{
			"/rawrcache.Cache/Put": ratelimit.NewLimiter(0.001, 1),
		},
	)

	if !s.Allow("/rawrcache.Cache/Put") {
		t.Fatal("expected first put to pass")
	}
	if s.Allow("/rawrcache.Cache/Put") {
		t.Fatal("expected second put to be limited")
	}
	for i := range 10 {
		if !s.Allow("/rawrcache.Cache/Get") {
			t.Fatalf("get %d: expected global limiter to allow", i)
		}
	}
}

func TestSet_NoGlobalMeansUnlimited(t *testing.T) {
	s := ratelimit.NewSet(nil, nil)
	if !s.Empty() {
		t.Fatal("expected empty set")
	}
	for range 100 {
		if !s.Allow("/rawrcache.Cache/Get") {
			t.Fatal("expected unlimited set to allow")
		}
	}
}
