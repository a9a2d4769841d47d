package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter admits up to limit requests per fixed window.
type FixedWindowCounter struct {
	limit       int           // requests admitted per window
	window      time.Duration // window length
	count       int           // requests admitted in the current window
	windowStart time.Time     // start of the current window
	now         clock
	mu          sync.Mutex
}

// NewFixedWindowCounter opens the first window at construction time.
func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	return &FixedWindowCounter{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
		now:         time.Now,
	}
}

// Allow starts a new window once the current one has elapsed. Bursts of up to
// twice the limit are possible around a window edge.
func (f *FixedWindowCounter) Allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if now.Sub(f.windowStart) >= f.window {
		f.windowStart = now
		f.count = 0
	}
	if f.count >= f.limit {
		return false
	}
	f.count++
	return true
}
