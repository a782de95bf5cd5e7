package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss the key is absent (or expired).
var ErrMiss = errors.New("key not found")

// KV string key/value persistence. Collections are stored as JSON values;
// ttl 0 keeps a value until overwritten.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// RedisKV KV over any go-redis command set (client, ring or cluster).
type RedisKV struct {
	c redis.Cmdable
}

func NewRedisKV(c redis.Cmdable) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

// ScanKeys walks SCAN to completion. SCAN may repeat keys across pages, so the
// result is de-duplicated and sorted.
func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	seen := map[string]struct{}{}
	var cursor uint64
	for {
		page, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range page {
			seen[k] = struct{}{}
		}
		if cursor = next; cursor == 0 {
			break
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
