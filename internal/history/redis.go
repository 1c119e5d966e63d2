package history

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "history:"

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisBackend stores history documents as plain string keys without expiry.
type RedisBackend struct {
	client RedisClient
}

func NewRedisBackend(client RedisClient) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Read(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (b *RedisBackend) Write(ctx context.Context, key string, doc []byte) error {
	return b.client.Set(ctx, redisKeyPrefix+key, doc, 0).Err()
}
