package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket refilled at a fixed rate. The bucket holds at
// most one second's worth of tokens (and never less than one).
type Limiter struct {
	mu         sync.Mutex
	rate       float64 // tokens per second
	tokens     float64
	maxTokens  float64
	lastUpdate time.Time
	now        func() time.Time
}

// New creates a limiter allowing rps requests per second. Non-positive rates
// fall back to one request per second.
func New(rps float64) *Limiter {
	if rps <= 0 {
		rps = 1.0
	}
	burst := rps
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:       rps,
		tokens:     burst,
		maxTokens:  burst,
		lastUpdate: time.Now(),
		now:        time.Now,
	}
}

// Allow takes a token if one is available without waiting
func (l *Limiter) Allow() bool {
	return l.reserve() == 0
}

// Wait blocks until a token is available or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		wait := l.reserve()
		if wait == 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns zero, or returns how long until the next
// token is due.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.tokens += now.Sub(l.lastUpdate).Seconds() * l.rate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastUpdate = now

	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return 0
	}
	missing := 1.0 - l.tokens
	wait := time.Duration(missing / l.rate * float64(time.Second))
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait
}
