package redis

import (
	"context"
	"testing"

	"OnboardingBuddy/backend/go/internal/config"

	"github.com/alicebob/miniredis/v2"
)

func TestNewAndPing(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := New(&config.RedisConfig{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	if err := Ping(ctx, rdb); err != nil {
		t.Errorf("Ping on a live server: %v", err)
	}

	mr.Close()
	if err := Ping(ctx, rdb); err == nil {
		t.Error("Ping succeeded after the server stopped")
	}
}

func TestNewFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := New(&config.RedisConfig{Address: addr}); err == nil {
		t.Fatal("New connected to a stopped server")
	}
}
