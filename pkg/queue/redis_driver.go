package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

const (
	redisQueueKey   = "stockroom:queue:jobs"
	redisDelayedKey = "stockroom:queue:delayed"
	redisLeasesKey  = "stockroom:queue:leases"
)

// claimScript moves the oldest ready job into the lease set in one step, so
// a worker that dies after Pop leaves the job leased rather than lost.
var claimScript = redis.NewScript(`
local v = redis.call('RPOP', KEYS[1])
if v then
	redis.call('ZADD', KEYS[2], ARGV[1], v)
end
return v
`)

// reclaimScript returns jobs whose lease expired to the head of the ready
// list.
var reclaimScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, v in ipairs(due) do
	redis.call('ZREM', KEYS[1], v)
	redis.call('RPUSH', KEYS[2], v)
end
return #due
`)

// RedisDriver keeps ready jobs in a list, delayed jobs in a sorted set
// scored by their due time, and claimed jobs in a lease set scored by
// their lease expiry, all in unix milliseconds.
//
// Delivery is at-least-once: a job whose worker never acks is handed out
// again once its lease expires.
type RedisDriver struct {
	rdb          redis.UniversalClient
	pollTimeout  time.Duration
	pollInterval time.Duration
	lease        time.Duration
}

// NewRedisDriver creates a driver on rdb. Pop waits up to two seconds
// before returning empty-handed. Leases last 15 minutes.
func NewRedisDriver(rdb redis.UniversalClient) *RedisDriver {
	return &RedisDriver{
		rdb:          rdb,
		pollTimeout:  2 * time.Second,
		pollInterval: 100 * time.Millisecond,
		lease:        15 * time.Minute,
	}
}

// WithLease sets how long a popped job may run before another worker may
// take it over. It should exceed the slowest job.
func (d *RedisDriver) WithLease(lease time.Duration) *RedisDriver {
	if lease > 0 {
		d.lease = lease
	}
	return d
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, redisQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	runAt := float64(time.Now().Add(delay).UnixMilli())
	if err := d.rdb.ZAdd(ctx, redisDelayedKey, redis.Z{
		Score:  runAt,
		Member: string(payload),
	}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// Pop reclaims expired leases and promotes due delayed jobs, then claims
// the next ready job, polling until pollTimeout.
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	if err := d.reclaim(ctx); err != nil && ctx.Err() == nil {
		return nil, err
	}
	if err := d.promote(ctx); err != nil && ctx.Err() == nil {
		return nil, err
	}

	deadline := time.Now().Add(d.pollTimeout)
	for {
		expires := strconv.FormatInt(time.Now().Add(d.lease).UnixMilli(), 10)
		v, err := claimScript.Run(ctx, d.rdb, []string{redisQueueKey, redisLeasesKey}, expires).Text()
		if err == nil {
			return []byte(v), nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("queue/redis: pop: %w", err)
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}
}

// Ack drops payload's lease.
func (d *RedisDriver) Ack(ctx context.Context, payload []byte) error {
	if err := d.rdb.ZRem(ctx, redisLeasesKey, string(payload)).Err(); err != nil {
		return fmt.Errorf("queue/redis: ack: %w", err)
	}
	return nil
}

func (d *RedisDriver) reclaim(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	n, err := reclaimScript.Run(ctx, d.rdb, []string{redisLeasesKey, redisQueueKey}, now).Int()
	if err != nil {
		return fmt.Errorf("queue/redis: reclaim: %w", err)
	}
	if n > 0 {
		logger.Warn("queue/redis: reclaimed jobs with expired leases", "count", n)
	}
	return nil
}

// promote moves due members of the delayed set onto the ready list. Only
// the caller whose ZREM succeeds pushes, so concurrent workers never
// duplicate a job.
func (d *RedisDriver) promote(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := d.rdb.ZRangeByScore(ctx, redisDelayedKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: 100,
	}).Result()
	if err != nil {
		return fmt.Errorf("queue/redis: scan delayed: %w", err)
	}

	for _, member := range due {
		removed, err := d.rdb.ZRem(ctx, redisDelayedKey, member).Result()
		if err != nil {
			return fmt.Errorf("queue/redis: claim delayed: %w", err)
		}
		if removed != 1 {
			continue
		}
		if err := d.rdb.LPush(ctx, redisQueueKey, member).Err(); err != nil {
			return fmt.Errorf("queue/redis: promote: %w", err)
		}
	}
	return nil
}
