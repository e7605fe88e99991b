package ratelimit

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(rps float64) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(rps)
	l.now = clock.now
	l.lastUpdate = clock.t
	return l, clock
}

func TestAllowRefills(t *testing.T) {
	l, clock := newTestLimiter(2)

	if !l.Allow() || !l.Allow() {
		t.Fatal("burst of 2 should be available")
	}
	if l.Allow() {
		t.Fatal("third request should be limited")
	}

	clock.t = clock.t.Add(500 * time.Millisecond)
	if !l.Allow() {
		t.Error("one token should refill after 500ms at 2 rps")
	}
	if l.Allow() {
		t.Error("only one token should have refilled")
	}
}

func TestReserveReportsWait(t *testing.T) {
	l, _ := newTestLimiter(4)
	for i := 0; i < 4; i++ {
		l.Allow()
	}
	if wait := l.reserve(); wait != 250*time.Millisecond {
		t.Errorf("wait: got %v, want 250ms", wait)
	}
}

func TestNonPositiveRate(t *testing.T) {
	l, _ := newTestLimiter(0)
	if l.rate != 1 || l.maxTokens != 1 {
		t.Errorf("got rate=%v burst=%v, want 1/1", l.rate, l.maxTokens)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l, _ := newTestLimiter(0.001)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected context error")
	}
}
