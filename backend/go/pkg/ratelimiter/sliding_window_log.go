package ratelimiter

import (
	"container/list"
	"sync"
	"time"
)

// SlidingWindowLog keeps the timestamp of every admitted request inside the
// window. It is exact, at the cost of memory proportional to limit.
type SlidingWindowLog struct {
	limit  int           // requests admitted per window
	window time.Duration // how far back admitted requests are remembered
	log    *list.List    // time.Time of each admitted request, oldest first
	now    clock
	mu     sync.Mutex
}

// NewSlidingWindowLog returns an empty log.
func NewSlidingWindowLog(limit int, window time.Duration) *SlidingWindowLog {
	return &SlidingWindowLog{
		limit:  limit,
		window: window,
		log:    list.New(),
		now:    time.Now,
	}
}

// evict drops timestamps older than the window. Callers hold mu.
func (s *SlidingWindowLog) evict(now time.Time) {
	boundary := now.Add(-s.window)
	for e := s.log.Front(); e != nil; {
		if !e.Value.(time.Time).Before(boundary) {
			return
		}
		next := e.Next()
		s.log.Remove(e)
		e = next
	}
}

// Allow admits the request and logs its time while fewer than limit requests
// are inside the window.
func (s *SlidingWindowLog) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evict(now)
	if s.log.Len() >= s.limit {
		return false
	}
	s.log.PushBack(now)
	return true
}

// RetryAfter is how long until the oldest logged request leaves the window.
// Zero means a request would be admitted now.
func (s *SlidingWindowLog) RetryAfter() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evict(now)
	if s.log.Len() < s.limit || s.log.Len() == 0 {
		return 0
	}
	oldest := s.log.Front().Value.(time.Time)
	return oldest.Add(s.window).Sub(now)
}

// Idle reports whether nothing is left in the window.
func (s *SlidingWindowLog) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict(s.now())
	return s.log.Len() == 0
}
