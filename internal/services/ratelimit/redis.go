package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter backed by Redis, for
// deployments where gateway instances must share rate-limit state
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

// Ensure RedisLimiter implements Limiter
var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a Redis-backed fixed-window limiter
func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	if cfg.Limit == 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultConfig().Window
	}
	return &RedisLimiter{
		client: client,
		cfg:    cfg,
	}
}

func counterKey(subject string) string {
	return fmt.Sprintf("piqgw:rl:%s", subject)
}

// Allow counts an attempt via INCR; the key expires when the window
// elapses, which resets the counter
func (l *RedisLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	key := counterKey(subject)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.cfg.Limit), nil
}
