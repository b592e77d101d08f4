package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket rate limiter for outbound LLM calls.
// Thread-safe; refill and decision happen under one lock so two
// racing callers can never both consume the last token.
type Limiter struct {
	mu         sync.Mutex
	capacity   int
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// Status is a point-in-time snapshot of the bucket
type Status struct {
	AvailableTokens int     `json:"available_tokens"`
	MaxTokens       int     `json:"max_tokens"`
	RefillRate      float64 `json:"refill_rate"`
	Percentage      float64 `json:"percentage"`
}

// NewLimiter creates a limiter with the given bucket capacity and refill
// rate in tokens per second. A capacity of 0 denies every request; a
// refill rate of 0 makes the bucket a fixed quota that never replenishes.
func NewLimiter(capacity int, refillRate float64) *Limiter {
	return &Limiter{
		capacity:   capacity,
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow reports whether an outbound call may proceed now. When denied it
// returns an advisory wait estimate until at least one token is available;
// the limiter never blocks or retries on the caller's behalf.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	if l.tokens >= 1 {
		l.tokens--
		return true, 0
	}

	if l.refillRate <= 0 {
		// Bucket never replenishes; the wait is unbounded.
		return false, 0
	}

	wait := (1 - l.tokens) / l.refillRate
	return false, time.Duration(wait * float64(time.Second))
}

// Status refills and reports the current bucket state without consuming a token
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	pct := 0.0
	if l.capacity > 0 {
		pct = l.tokens / float64(l.capacity) * 100
	}

	return Status{
		AvailableTokens: int(l.tokens),
		MaxTokens:       l.capacity,
		RefillRate:      l.refillRate,
		Percentage:      pct,
	}
}

// refill adds elapsed*rate tokens capped at capacity (caller holds the lock)
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	l.tokens += elapsed * l.refillRate
	if l.tokens > float64(l.capacity) {
		l.tokens = float64(l.capacity)
	}
	l.lastRefill = now
}
