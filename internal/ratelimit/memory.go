package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	windowStart time.Time
	count       int
}

var _ Limiter = (*Memory)(nil)

// Memory keeps buckets in process memory. Buckets are never evicted.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]*bucket), now: time.Now}
}

// WithClock replaces the time source, used by tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Check(_ context.Context, key string, max int, window time.Duration) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || now.Sub(b.windowStart) >= window {
		m.buckets[key] = &bucket{windowStart: now, count: 1}
		return Result{Allowed: true, Remaining: max - 1}, nil
	}
	if b.count < max {
		b.count++
		return Result{Allowed: true, Remaining: max - b.count}, nil
	}
	left := b.windowStart.Add(window).Sub(now)
	return Result{Allowed: false, RetryAfterSeconds: retryAfter(left), Remaining: 0}, nil
}
