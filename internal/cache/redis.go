package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const redisKeyPrefix = "career-mapper:dataset:"

// Redis shares decoded datasets between processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis opens a Redis-backed cache. The connection is established lazily.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	return NewRedisWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), ttl)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// Get returns the cached payload.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		r.misses.Add(1)
		return nil, false, eris.Wrapf(err, "cache: redis get %s", key)
	}
	r.hits.Add(1)
	return data, true, nil
}

// Set stores a payload with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, redisKey(key), data, r.ttl).Err(); err != nil {
		return eris.Wrapf(err, "cache: redis set %s", key)
	}
	return nil
}

// Stats returns hit/miss counters. Entry counts are not tracked for Redis.
func (r *Redis) Stats() Stats {
	hits := r.hits.Load()
	misses := r.misses.Load()
	return Stats{
		Driver:  "redis",
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
