package ratelimiter

import (
	"math"
	"sync"
	"time"
)

// LeakyBucket smooths bursts: the level drains at rate per second and each
// request adds one unit while the level is below capacity.
type LeakyBucket struct {
	rate     float64   // units drained per second
	capacity float64   // level at which requests are rejected
	level    float64   // current fill, never negative
	lastLeak time.Time // when level was last drained
	now      clock
	mu       sync.Mutex
}

// NewLeakyBucket starts with an empty bucket.
func NewLeakyBucket(rate float64, capacity int) *LeakyBucket {
	return &LeakyBucket{
		rate:     rate,
		capacity: float64(capacity),
		lastLeak: time.Now(),
		now:      time.Now,
	}
}

func (lb *LeakyBucket) Allow() bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := lb.now()
	if elapsed := now.Sub(lb.lastLeak); elapsed > 0 {
		lb.level = math.Max(0, lb.level-elapsed.Seconds()*lb.rate)
		lb.lastLeak = now
	}
	if lb.level >= lb.capacity {
		return false
	}
	lb.level++
	return true
}
