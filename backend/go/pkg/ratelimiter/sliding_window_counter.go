package ratelimiter

import (
	"sync"
	"time"
)

// SlidingWindowCounter splits the window into buckets and counts requests in
// the buckets still inside the window.
type SlidingWindowCounter struct {
	limit      int           // requests admitted across all buckets
	bucketSize time.Duration // window divided by the number of buckets
	buckets    []int         // ring of per-bucket counts
	current    int           // index of the bucket receiving requests
	lastUpdate time.Time     // start of the current bucket
	now        clock
	mu         sync.Mutex
}

// NewSlidingWindowCounter uses 10 buckets when numBuckets is not positive.
func NewSlidingWindowCounter(limit int, window time.Duration, numBuckets int) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	return &SlidingWindowCounter{
		limit:      limit,
		bucketSize: window / time.Duration(numBuckets),
		buckets:    make([]int, numBuckets),
		lastUpdate: time.Now(),
		now:        time.Now,
	}
}

// slide advances current by the buckets elapsed since lastUpdate, zeroing the
// ones it moves into.
func (s *SlidingWindowCounter) slide(now time.Time) {
	steps := int(now.Sub(s.lastUpdate) / s.bucketSize)
	if steps <= 0 {
		return
	}
	n := len(s.buckets)
	if steps > n {
		steps = n
	}
	for i := 1; i <= steps; i++ {
		s.buckets[(s.current+i)%n] = 0
	}
	s.current = (s.current + steps) % n
	s.lastUpdate = s.lastUpdate.Add(time.Duration(steps) * s.bucketSize)
	if steps == n {
		s.lastUpdate = now
	}
}

func (s *SlidingWindowCounter) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slide(s.now())

	total := 0
	for _, c := range s.buckets {
		total += c
	}
	if total >= s.limit {
		return false
	}
	s.buckets[s.current]++
	return true
}
