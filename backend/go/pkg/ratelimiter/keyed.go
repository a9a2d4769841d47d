package ratelimiter

import (
	"sync"
	"time"
)

// PerUser keeps an independent sliding window log per user id. Idle entries
// are dropped by Sweep.
type PerUser struct {
	limit  int                         // requests admitted per window and user
	window time.Duration               // length of every user's window
	users  map[int64]*SlidingWindowLog // guarded by mu
	now    clock
	// mu is held across the lookup and the limiter call, so Sweep never drops
	// a limiter a request is being counted on.
	mu sync.Mutex
}

// NewPerUser returns a limiter admitting limit requests per window for each user.
func NewPerUser(limit int, window time.Duration) *PerUser {
	return &PerUser{
		limit:  limit,
		window: window,
		users:  make(map[int64]*SlidingWindowLog),
		now:    time.Now,
	}
}

// lookup must be called with mu held.
func (p *PerUser) lookup(userID int64) *SlidingWindowLog {
	l, ok := p.users[userID]
	if !ok {
		l = NewSlidingWindowLog(p.limit, p.window)
		l.now = p.now
		p.users[userID] = l
	}
	return l
}

// Allow records a request of userID and reports whether it is within limits.
func (p *PerUser) Allow(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lookup(userID).Allow()
}

// RetryAfter tells a throttled user how long to wait.
func (p *PerUser) RetryAfter(userID int64) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.users[userID]; ok {
		return l.RetryAfter()
	}
	return 0
}

// Sweep forgets users with an empty window and returns how many were removed.
func (p *PerUser) Sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for id, l := range p.users {
		if l.Idle() {
			delete(p.users, id)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked users.
func (p *PerUser) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}
