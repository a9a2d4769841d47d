package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if m, err := s.Mode(ctx, 1); err != nil || m != ModeNone {
		t.Fatalf("fresh user: mode=%q err=%v", m, err)
	}
	if err := s.SetMode(ctx, 1, ModeFeedback); err != nil {
		t.Fatal(err)
	}
	if m, _ := s.Mode(ctx, 1); m != ModeFeedback {
		t.Errorf("mode = %q, want feedback", m)
	}
	if m, _ := s.Mode(ctx, 2); m != ModeNone {
		t.Errorf("other user leaked mode %q", m)
	}
	if err := s.Clear(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if m, _ := s.Mode(ctx, 1); m != ModeNone {
		t.Errorf("mode after Clear = %q", m)
	}
	s.SetMode(ctx, 1, ModeFeedback)
	s.SetMode(ctx, 1, ModeNone)
	if m, _ := s.Mode(ctx, 1); m != ModeNone {
		t.Errorf("mode after SetMode(None) = %q", m)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory(time.Minute)
	exerciseStore(t, m)

	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	m.SetMode(context.Background(), 5, ModeFeedback)
	now = now.Add(2 * time.Minute)
	if mode, _ := m.Mode(context.Background(), 5); mode != ModeNone {
		t.Errorf("expired mode still returned: %q", mode)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedis(client, "onboarding:session:", time.Minute)
	exerciseStore(t, s)

	s.SetMode(context.Background(), 9, ModeFeedback)
	if !mr.Exists("onboarding:session:9") {
		t.Fatal("key not written with prefix")
	}
	mr.FastForward(2 * time.Minute)
	if mode, _ := s.Mode(context.Background(), 9); mode != ModeNone {
		t.Errorf("expired mode still returned: %q", mode)
	}
}
