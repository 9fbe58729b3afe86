package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect establishes a connection to a Redis server using the provided configuration.
// It attempts to connect RetryAttempts times, pausing RetryInterval between attempts,
// all within ConnectTimeout.
//
// Returns ErrEmptyConnectionURL when no URL is configured, ErrFailedToParseRedisConnString
// if the URL is invalid and ErrRedisNotReady if every attempt fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	redisConnOpt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	var lastErr error
	for attempt := range max(cfg.RetryAttempts, 1) {
		if attempt > 0 {
			timer := time.NewTimer(cfg.RetryInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, errors.Join(ErrRedisNotReady, ctx.Err())
			case <-timer.C:
			}
		}

		redisClient := redis.NewClient(redisConnOpt)
		if lastErr = redisClient.Ping(ctx).Err(); lastErr == nil {
			return redisClient, nil
		}
		_ = redisClient.Close()
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}
