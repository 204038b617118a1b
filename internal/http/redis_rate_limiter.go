package httpx

import (
	"context"
	"time"

	"log/slog"

	redis "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "dashboard:ratelimit:"
	redisOpTimeout = 250 * time.Millisecond
	redisDialCheck = 2 * time.Second
)

// redisRateLimiter shares one counter per key across API replicas. Redis
// errors fail open.
type redisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRateLimiter connects to Redis and verifies the connection before
// returning the limiter.
func NewRedisRateLimiter(addr, password string, db int, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), redisDialCheck)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &redisRateLimiter{client: client, logger: logger}, nil
}

func (rl *redisRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	bucket := redisKeyPrefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, bucket)
		ttl = pipe.TTL(ctx, bucket)
		return nil
	})
	if err != nil {
		rl.fail("pipeline", err)
		return rateDecision{allowed: true}
	}
	count := int(incr.Val())
	remaining := ttl.Val()
	if remaining <= 0 {
		// First hit in a fresh window, or a key left without expiry by a
		// previous failed EXPIRE: (re)arm the window.
		if err := rl.client.Expire(ctx, bucket, window).Err(); err != nil {
			rl.fail("expire", err)
		}
		remaining = window
	}
	return rateDecision{
		allowed:   count <= limit,
		count:     count,
		windowEnd: time.Now().Add(remaining),
	}
}

func (rl *redisRateLimiter) Close() {
	if rl.client != nil {
		_ = rl.client.Close()
	}
}

func (rl *redisRateLimiter) fail(op string, err error) {
	if rl.logger != nil {
		rl.logger.Error("redis rate limiter error", "op", op, "error", err)
	}
}
