package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a fixed-window limiter shared across server instances.
type Redis struct {
	cfg    Config
	client *redis.Client
	logger zerolog.Logger
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(cfg Config, client *redis.Client, logger zerolog.Logger) *Redis {
	return &Redis{
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow records a hit for key. The counter key expires with the window, so
// idle clients cost nothing.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "ratelimit:" + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.cfg.Window).Err(); err != nil {
			r.logger.Error().Err(err).Str("key", key).Msg("failed to set rate limit expiry")
		}
	}

	return count <= int64(r.cfg.Limit), nil
}

// Ensure Redis implements Limiter.
var _ Limiter = (*Redis)(nil)
