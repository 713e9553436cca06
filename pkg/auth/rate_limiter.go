package auth

import (
	"context"
	"sync"
	"time"

	"catnook-backend/pkg/utils"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter keeps per-key request timestamps in process memory
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	clock      utils.Clock
}

type window struct {
	requests []time.Time
	mu       sync.Mutex
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration, clock utils.Clock) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		clock:      clock,
	}
}

// Allow checks if a request is allowed
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	w, exists := l.windows[key]
	if !exists {
		w = &window{}
		l.windows[key] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.clock.Now()
	windowStart := now.Add(-l.windowSize)

	valid := w.requests[:0]
	for _, at := range w.requests {
		if at.After(windowStart) {
			valid = append(valid, at)
		}
	}
	w.requests = valid

	if len(w.requests) >= l.limit {
		return false, nil
	}
	w.requests = append(w.requests, now)
	return true, nil
}

// Reset resets the rate limit for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// PrefixedLimiter namespaces keys so one backend can serve several limits
type PrefixedLimiter struct {
	prefix  string
	limiter RateLimiter
}

// NewIPRateLimiter limits by client address
func NewIPRateLimiter(limiter RateLimiter) *PrefixedLimiter {
	return &PrefixedLimiter{prefix: "ip:", limiter: limiter}
}

// NewUserRateLimiter limits by authenticated user
func NewUserRateLimiter(limiter RateLimiter) *PrefixedLimiter {
	return &PrefixedLimiter{prefix: "user:", limiter: limiter}
}

func (l *PrefixedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.limiter.Allow(ctx, l.prefix+key)
}

func (l *PrefixedLimiter) Reset(ctx context.Context, key string) error {
	return l.limiter.Reset(ctx, l.prefix+key)
}
