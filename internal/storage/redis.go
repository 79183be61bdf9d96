package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// redisBackend keeps the blob under a single redis key with no TTL; redis is
// the system of record here, not a cache.
type redisBackend struct {
	client *redis.Client
	key    string
}

func openRedis(ctx context.Context, url, key string) (*redisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &redisBackend{client: client, key: key}, nil
}

func (r *redisBackend) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *redisBackend) Save(ctx context.Context, data []byte) error {
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *redisBackend) Close() error {
	return r.client.Close()
}
