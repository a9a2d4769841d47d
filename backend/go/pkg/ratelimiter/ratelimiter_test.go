package ratelimiter

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time           { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func allowN(l RateLimiter, n int) int {
	ok := 0
	for i := 0; i < n; i++ {
		if l.Allow() {
			ok++
		}
	}
	return ok
}

func TestSlidingWindowLog(t *testing.T) {
	clk := newFakeClock()
	l := NewSlidingWindowLog(10, time.Minute)
	l.now = clk.now

	if got := allowN(l, 12); got != 10 {
		t.Fatalf("admitted %d of 12, want 10", got)
	}
	if got := l.RetryAfter(); got != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", got)
	}

	clk.advance(30 * time.Second)
	if l.Allow() {
		t.Error("request admitted before the window slid")
	}
	if got := l.RetryAfter(); got != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", got)
	}

	clk.advance(30*time.Second + time.Millisecond)
	if !l.Allow() {
		t.Error("request rejected after the window slid")
	}
}

func TestPerUserIsolatesUsers(t *testing.T) {
	clk := newFakeClock()
	p := NewPerUser(2, time.Minute)
	p.now = clk.now

	if !p.Allow(1) || !p.Allow(1) {
		t.Fatal("first two requests of user 1 must pass")
	}
	if p.Allow(1) {
		t.Error("third request of user 1 must be throttled")
	}
	if !p.Allow(2) {
		t.Error("user 2 must not be affected by user 1")
	}
	if p.RetryAfter(1) <= 0 {
		t.Error("throttled user must get a positive retry delay")
	}

	clk.advance(2 * time.Minute)
	if removed := p.Sweep(); removed != 2 {
		t.Errorf("Sweep removed %d users, want 2", removed)
	}
	if p.Len() != 0 {
		t.Errorf("Len = %d after sweep", p.Len())
	}
}

func TestPerUserConcurrentSweepKeepsCount(t *testing.T) {
	p := NewPerUser(5, time.Hour)

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
	)
	stop := make(chan struct{})
	sweeper := make(chan struct{})
	go func() {
		defer close(sweeper)
		for {
			select {
			case <-stop:
				return
			default:
				p.Sweep()
			}
		}
	}()
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Allow(7) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	close(stop)
	<-sweeper

	if got := admitted.Load(); got != 5 {
		t.Errorf("admitted %d requests, want 5", got)
	}
	if p.RetryAfter(7) <= 0 {
		t.Error("user must stay throttled after concurrent sweeps")
	}
}

func TestFixedWindowCounter(t *testing.T) {
	clk := newFakeClock()
	l := NewFixedWindowCounter(3, time.Second)
	l.now = clk.now
	l.windowStart = clk.t

	if got := allowN(l, 5); got != 3 {
		t.Fatalf("admitted %d, want 3", got)
	}
	clk.advance(time.Second)
	if got := allowN(l, 5); got != 3 {
		t.Fatalf("admitted %d in the next window, want 3", got)
	}
}

func TestTokenBucketRefills(t *testing.T) {
	clk := newFakeClock()
	l := NewTokenBucket(2, 4)
	l.now = clk.now
	l.lastRefill = clk.t

	if got := allowN(l, 6); got != 4 {
		t.Fatalf("burst admitted %d, want 4", got)
	}
	clk.advance(time.Second)
	if got := allowN(l, 6); got != 2 {
		t.Fatalf("after 1s admitted %d, want 2", got)
	}
}

func TestLeakyBucketDrains(t *testing.T) {
	clk := newFakeClock()
	l := NewLeakyBucket(1, 2)
	l.now = clk.now
	l.lastLeak = clk.t

	if got := allowN(l, 3); got != 2 {
		t.Fatalf("admitted %d, want 2", got)
	}
	clk.advance(time.Second)
	if got := allowN(l, 3); got != 1 {
		t.Fatalf("after 1s admitted %d, want 1", got)
	}
}

func TestSlidingWindowCounter(t *testing.T) {
	clk := newFakeClock()
	l := NewSlidingWindowCounter(4, 10*time.Second, 10)
	l.now = clk.now
	l.lastUpdate = clk.t

	if got := allowN(l, 6); got != 4 {
		t.Fatalf("admitted %d, want 4", got)
	}
	clk.advance(5 * time.Second)
	if l.Allow() {
		t.Error("requests still inside the window must count")
	}
	clk.advance(6 * time.Second)
	if got := allowN(l, 6); got != 4 {
		t.Fatalf("after window admitted %d, want 4", got)
	}
}

func TestFromConfig(t *testing.T) {
	cases := []struct {
		cfg     config.RateLimiterConfig
		wantErr bool
	}{
		{config.RateLimiterConfig{TokenBucket: config.TokenBucketConfig{Rate: 1, Capacity: 1}}, false},
		{config.RateLimiterConfig{Algorithm: "leakyBucket", LeakyBucket: config.LeakyBucketConfig{Rate: 1, Capacity: 1}}, false},
		{config.RateLimiterConfig{Algorithm: "slidingLog", SlidingLog: config.SlidingLogConfig{Limit: 1, Window: "1s"}}, false},
		{config.RateLimiterConfig{Algorithm: "slidingLog", SlidingLog: config.SlidingLogConfig{Limit: 1, Window: "soon"}}, true},
		{config.RateLimiterConfig{Algorithm: "fixedWindow", FixedWindow: config.FixedWindowConfig{Limit: 1, Window: "1m"}}, false},
		{config.RateLimiterConfig{Algorithm: "slidingCounter", SlidingCounter: config.SlidingCounterConfig{Limit: 1, Window: "1m"}}, false},
		{config.RateLimiterConfig{Algorithm: "magic"}, true},
	}
	for _, c := range cases {
		_, err := FromConfig(c.cfg)
		if (err != nil) != c.wantErr {
			t.Errorf("FromConfig(%s) err = %v, wantErr %v", c.cfg.Algorithm, err, c.wantErr)
		}
	}
}
