package redisx

import (
	"context"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// MarkDone records that key was processed so redeliveries can be skipped.
func MarkDone(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Set(ctx, key, "1", TTLDedup).Err()
}
