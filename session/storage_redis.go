package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage persists snapshots in Redis, for hosts where one Redis key plays the
// role of a tab's session storage (server-side shells, BFFs). Every write refreshes
// the TTL so an abandoned tab ages out.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStorage builds a Redis-backed storage. A non-positive ttl defaults to 12h.
func NewRedisStorage(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = "gs:tab:"
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStorage{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Load implements Storage.
func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStorageMiss
		}
		return nil, err
	}
	return data, nil
}

// Save implements Storage.
func (r *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.key(key), data, r.ttl).Err()
}

// Delete implements Storage.
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisStorage) key(key string) string {
	return r.prefix + key
}
