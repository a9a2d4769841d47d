package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis keeps modes in Redis so they survive restarts.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

func (r *Redis) Mode(ctx context.Context, userID int64) (Mode, error) {
	v, err := r.client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return ModeNone, nil
	}
	if err != nil {
		return ModeNone, fmt.Errorf("get session of user %d: %w", userID, err)
	}
	return Mode(v), nil
}

func (r *Redis) SetMode(ctx context.Context, userID int64, mode Mode) error {
	if mode == ModeNone {
		return r.Clear(ctx, userID)
	}
	if err := r.client.Set(ctx, r.key(userID), string(mode), r.ttl).Err(); err != nil {
		return fmt.Errorf("set session of user %d: %w", userID, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("clear session of user %d: %w", userID, err)
	}
	return nil
}
