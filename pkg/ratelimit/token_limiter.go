package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a per-minute token budget. Callers declare how many
// tokens a request will consume before sending it; Wait blocks until the
// current window has room.
type TokenLimiter struct {
	mu          sync.Mutex
	limit       int
	used        int
	windowStart time.Time
}

// NewTokenLimiter creates a limiter allowing maxPerMinute tokens per minute.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	return &TokenLimiter{
		limit:       maxPerMinute,
		windowStart: time.Now(),
	}
}

// Wait blocks until tokens can be consumed within the per-minute budget, or
// the context is canceled. A request larger than the whole budget is admitted
// alone at the start of a fresh window rather than blocking forever.
func (l *TokenLimiter) Wait(ctx context.Context, tokens int) error {
	for {
		l.mu.Lock()
		l.reset()
		if l.used+tokens <= l.limit || l.used == 0 {
			l.used += tokens
			l.mu.Unlock()
			return nil
		}
		wait := time.Until(l.windowStart.Add(time.Minute))
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// GetRemaining returns the number of tokens left in the current window.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reset()
	if l.used >= l.limit {
		return 0
	}
	return l.limit - l.used
}

// reset starts a new window once the current one has elapsed. Caller must
// hold the mutex.
func (l *TokenLimiter) reset() {
	if time.Since(l.windowStart) >= time.Minute {
		l.windowStart = time.Now()
		l.used = 0
	}
}
