package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

// CounterRepository tracks provisional seat holds per event. The hold is
// not authoritative capacity; it only bounds what this service has
// committed but not yet reconciled.
type CounterRepository interface {
	Get(ctx context.Context, eID string) (int64, error)
	IncrementWithCap(ctx context.Context, eID string, seats, capacity int64) (bool, int64, error)
	DecrementBy(ctx context.Context, eID string, seats int64) (int64, error)
}

type redisCounterRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisCounterRepository(cli *redis.Client, l logger.Logger) CounterRepository {
	return &redisCounterRepository{
		cli: cli,
		l:   l,
	}
}

// incrementWithCapScript increments the counter only while the result stays
// within the capacity bound, so the check and the increment cannot race.
var incrementWithCapScript = redis.NewScript(`
	local key = KEYS[1]
	local seats = tonumber(ARGV[1])
	local cap = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	if current + seats > cap then
		return {0, current}
	end

	local val = redis.call('INCRBY', key, seats)
	return {1, val}
`)

// decrementFloorScript decrements the counter without letting it go below
// zero, which a duplicate compensation could otherwise cause.
var decrementFloorScript = redis.NewScript(`
	local key = KEYS[1]
	local seats = tonumber(ARGV[1])

	local val = redis.call('DECRBY', key, seats)
	if val < 0 then
		redis.call('SET', key, 0)
		val = 0
	end
	return val
`)

func (r *redisCounterRepository) Get(ctx context.Context, eID string) (int64, error) {
	val, err := r.cli.Get(ctx, r.counterKey(eID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		r.l.Errorf(ctx, "redisCounterRepository.Get: %v", err)
		return 0, err
	}
	return val, nil
}

// IncrementWithCap reports whether the hold was taken and the counter value
// observed by the script (post-increment on success, untouched on refusal).
func (r *redisCounterRepository) IncrementWithCap(ctx context.Context, eID string, seats, capacity int64) (bool, int64, error) {
	res, err := incrementWithCapScript.Run(ctx, r.cli, []string{r.counterKey(eID)}, seats, capacity).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisCounterRepository.IncrementWithCap: %v", err)
		return false, 0, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, fmt.Errorf("redisCounterRepository.IncrementWithCap: unexpected script result %v", res)
	}

	allowed, _ := vals[0].(int64)
	current, _ := vals[1].(int64)

	if allowed == 1 {
		r.l.Debugf(ctx, "Seat hold taken: event_id=%s seats=%d counter=%d", eID, seats, current)
	}

	return allowed == 1, current, nil
}

func (r *redisCounterRepository) DecrementBy(ctx context.Context, eID string, seats int64) (int64, error) {
	res, err := decrementFloorScript.Run(ctx, r.cli, []string{r.counterKey(eID)}, seats).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisCounterRepository.DecrementBy: %v", err)
		return 0, err
	}

	val, _ := res.(int64)
	r.l.Debugf(ctx, "Seat hold released: event_id=%s seats=%d counter=%d", eID, seats, val)
	return val, nil
}

func (r *redisCounterRepository) counterKey(eID string) string {
	return fmt.Sprintf("booking:%s:reserved", eID)
}
