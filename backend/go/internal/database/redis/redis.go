package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"OnboardingBuddy/backend/go/internal/config"

	"github.com/go-redis/redis/v8"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 2 * time.Second
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// New opens a client for cfg and pings it once.
func New(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Address, err)
	}
	return rdb, nil
}

// GetClient returns the process-wide session client, created by New on first use.
func GetClient(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		client, initErr = New(cfg)
	})
	return client, initErr
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// HealthCheck pings the process-wide client. When GetClient failed, the
// connection error is reported.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		if initErr != nil {
			return initErr
		}
		return errors.New("redis client is not initialised")
	}
	return Ping(ctx, client)
}

// Ping checks that rdb answers.
func Ping(ctx context.Context, rdb *redis.Client) error {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
