package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/google/go-cmp/cmp"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func TestRunOnceKeepsGoingAfterFailures(t *testing.T) {
	log := &callLog{}
	s := New(time.Hour, logger.New("reminder_test", "", ""),
		Job{Name: "remind", Run: func(context.Context) (int, error) {
			log.add("remind")
			return 0, errors.New("database is locked")
		}},
		Counted("flood", func() int {
			log.add("flood")
			panic("boom")
		}),
		Listed("prune", func() ([]string, error) {
			log.add("prune")
			return []string{"old.csv"}, nil
		}),
	)

	s.RunOnce(context.Background())
	if diff := cmp.Diff([]string{"remind", "flood", "prune"}, log.snapshot()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu    sync.Mutex
		ticks int
	)
	s := New(10*time.Millisecond, logger.New("reminder_test", "", ""),
		Counted("tick", func() int {
			mu.Lock()
			defer mu.Unlock()
			ticks++
			if ticks == 3 {
				cancel()
			}
			return 1
		}),
	)

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}
}

func TestDefaultInterval(t *testing.T) {
	if s := New(0, logger.New("reminder_test", "", "")); s.interval != time.Hour {
		t.Errorf("interval = %v", s.interval)
	}
}
