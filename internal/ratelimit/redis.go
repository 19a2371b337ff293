package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

const redisTimeout = 500 * time.Millisecond

// RedisCounter stores httprate window counters in Redis so every instance
// behind a load balancer enforces the same ceiling. When Redis cannot be
// reached the counter reports zero and the request is admitted.
type RedisCounter struct {
	client *redis.Client
	prefix string
	window time.Duration
	logger *slog.Logger
}

// NewRedisCounter returns a counter storing keys under prefix.
func NewRedisCounter(client *redis.Client, prefix string, logger *slog.Logger) *RedisCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCounter{client: client, prefix: prefix, window: time.Minute, logger: logger}
}

// Config records the window length used for key expiry.
func (c *RedisCounter) Config(requestLimit int, windowLength time.Duration) {
	c.window = windowLength
}

// Increment adds one request to the window.
func (c *RedisCounter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

// IncrementBy adds amount requests to the window. INCRBY and EXPIRE run in
// one MULTI block so the count never outlives its window.
func (c *RedisCounter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	k := c.key(key, currentWindow)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrBy(ctx, k, int64(amount))
		pipe.Expire(ctx, k, 3*c.window)
		return nil
	})
	if err != nil {
		c.logger.Warn("rate limit counter increment", slog.Any("error", err))
	}
	return nil
}

// Get returns the counts of the current and previous windows.
func (c *RedisCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	values, err := c.client.MGet(ctx, c.key(key, currentWindow), c.key(key, previousWindow)).Result()
	if err != nil {
		c.logger.Warn("rate limit counter read", slog.Any("error", err))
		return 0, 0, nil
	}
	return toCount(values[0]), toCount(values[1]), nil
}

func (c *RedisCounter) key(key string, window time.Time) string {
	return fmt.Sprintf("%s:%s:%d", c.prefix, key, window.Unix())
}

func toCount(v any) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

var _ httprate.LimitCounter = (*RedisCounter)(nil)
