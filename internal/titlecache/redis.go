package titlecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares one title list between frontend instances.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore keeps the list under key. A zero ttl never expires it.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: key, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context) ([]string, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read titles from redis: %w", err)
	}

	var titles []string
	if err := json.Unmarshal(data, &titles); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached titles: %w", err)
	}
	return titles, true, nil
}

func (s *RedisStore) Put(ctx context.Context, titles []string) error {
	data, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("failed to encode titles: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write titles to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
