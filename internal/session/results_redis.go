package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisResultStore caches reports under "result:<session id>" with a TTL.
type RedisResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisResultStore(client *redis.Client, ttl time.Duration) *RedisResultStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisResultStore{client: client, ttl: ttl}
}

func (c *RedisResultStore) key(id string) string { return "result:" + id }

func (c *RedisResultStore) Put(ctx context.Context, r *Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(r.SessionID), data, c.ttl).Err()
}

func (c *RedisResultStore) Get(ctx context.Context, id string) (*Result, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
