package ratelimiter

import (
	"math"
	"sync"
	"time"
)

// TokenBucket refills rate tokens per second up to capacity; bursts up to
// capacity pass immediately.
type TokenBucket struct {
	rate       float64   // tokens added per second
	capacity   float64   // largest burst
	tokens     float64   // tokens available now, fractional between refills
	lastRefill time.Time // when tokens was last brought up to date
	now        clock
	mu         sync.Mutex
}

// NewTokenBucket starts with a full bucket.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Allow refills the bucket for the time elapsed since the last call and takes
// one token if there is one.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	if elapsed := now.Sub(tb.lastRefill); elapsed > 0 {
		tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed.Seconds()*tb.rate)
		tb.lastRefill = now
	}
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}
