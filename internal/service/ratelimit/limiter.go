package ratelimit

import (
	"sync"
	"time"
)

// bucket tracks the token balance for one upstream endpoint.
type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64
	last       time.Time
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.last = now
}

// Limiter is a per-key token bucket. Each exchange endpoint gets its own
// bucket so a burst of curve requests cannot starve bond refreshes.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter {
	return &Limiter{m: make(map[string]*bucket)}
}

func (l *Limiter) get(key string, capacity, refillPerSec float64, now time.Time) *bucket {
	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}
	return b
}

// Allow consumes one token for key when available.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.get(key, capacity, refillPerSec, now)
	b.refill(now)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Reserve consumes one token for key, returning how long the caller must
// wait before the reservation becomes valid. Zero means the request may
// proceed immediately.
func (l *Limiter) Reserve(key string, capacity, refillPerSec float64) time.Duration {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.get(key, capacity, refillPerSec, now)
	b.refill(now)
	b.tokens--
	if b.tokens >= 0 {
		return 0
	}
	if b.refillRate <= 0 {
		return time.Second
	}
	return time.Duration(-b.tokens / b.refillRate * float64(time.Second))
}
