package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
	log       *slog.Logger
}

// Namespace is the key prefix the API and worker processes share.
const Namespace = "tenderhub:cache"

func NewRedis(rdb *redis.Client, namespace string, ttl time.Duration, log *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisCache{rdb: rdb, namespace: namespace, ttl: ttl, log: log}
}

func (r *RedisCache) key(k string) string {
	return r.namespace + ":" + k
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.WarnContext(ctx, "cache.get_failed", "key", key, "err", err)
		}
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.rdb.Set(ctx, r.key(key), val, ttl).Err(); err != nil {
		r.log.WarnContext(ctx, "cache.set_failed", "key", key, "err", err)
	}
}

// DeletePrefix walks matching keys with SCAN so invalidation never blocks the server.
func (r *RedisCache) DeletePrefix(ctx context.Context, prefix string) {
	iter := r.rdb.Scan(ctx, 0, r.key(prefix)+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.log.WarnContext(ctx, "cache.scan_failed", "prefix", prefix, "err", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		r.log.WarnContext(ctx, "cache.delete_failed", "prefix", prefix, "err", err)
	}
}
