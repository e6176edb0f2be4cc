package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

// RateLimitRepository implements sliding-window admission control keyed by
// (action, identity).
type RateLimitRepository interface {
	IsAllowed(ctx context.Context, action, identity string, limit int, window time.Duration) (bool, int, error)
}

type redisRateLimitRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisRateLimitRepository(cli *redis.Client, l logger.Logger) RateLimitRepository {
	return &redisRateLimitRepository{
		cli: cli,
		l:   l,
	}
}

// slidingWindowScript prunes, counts, and records in one atomic unit so two
// concurrent requests cannot both take the last slot.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

	local count = redis.call('ZCARD', key)
	if count >= limit then
		return {0, 0}
	end

	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1}
`)

// IsAllowed reports admission and the remaining quota in the current window.
func (r *redisRateLimitRepository) IsAllowed(ctx context.Context, action, identity string, limit int, window time.Duration) (bool, int, error) {
	key := r.windowKey(action, identity)
	now := time.Now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, r.cli, []string{key}, now, window.Milliseconds(), limit, member).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisRateLimitRepository.IsAllowed: %v", err)
		return false, 0, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, fmt.Errorf("redisRateLimitRepository.IsAllowed: unexpected script result %v", res)
	}

	allowed, _ := vals[0].(int64)
	remaining, _ := vals[1].(int64)

	return allowed == 1, int(remaining), nil
}

func (r *redisRateLimitRepository) windowKey(action, identity string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, identity)
}
