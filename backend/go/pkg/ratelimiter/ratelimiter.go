package ratelimiter

import (
	"fmt"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
)

// RateLimiter decides whether one more request may pass right now.
type RateLimiter interface {
	Allow() bool
}

// clock is swapped in tests.
type clock func() time.Time

// FromConfig builds the limiter selected by the middleware configuration.
func FromConfig(cfg config.RateLimiterConfig) (RateLimiter, error) {
	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = "tokenBucket"
	}

	switch algorithm {
	case "tokenBucket":
		return NewTokenBucket(cfg.TokenBucket.Rate, cfg.TokenBucket.Capacity), nil
	case "leakyBucket":
		return NewLeakyBucket(cfg.LeakyBucket.Rate, cfg.LeakyBucket.Capacity), nil
	case "fixedWindow":
		window, err := time.ParseDuration(cfg.FixedWindow.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid fixedWindow duration: %w", err)
		}
		return NewFixedWindowCounter(cfg.FixedWindow.Limit, window), nil
	case "slidingLog":
		window, err := time.ParseDuration(cfg.SlidingLog.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid slidingLog duration: %w", err)
		}
		return NewSlidingWindowLog(cfg.SlidingLog.Limit, window), nil
	case "slidingCounter":
		window, err := time.ParseDuration(cfg.SlidingCounter.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid slidingCounter duration: %w", err)
		}
		return NewSlidingWindowCounter(cfg.SlidingCounter.Limit, window, cfg.SlidingCounter.NumBuckets), nil
	default:
		return nil, fmt.Errorf("unknown rate limiter algorithm: %s", cfg.Algorithm)
	}
}
