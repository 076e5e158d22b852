package session

import (
	"context"
	"fmt"

	"piaxe-console/pkg/redis"
)

// RedisStorage persists session keys in Redis under a namespace, so several
// operators or processes can share one instance without colliding.
type RedisStorage struct {
	client    *redis.Client
	namespace string
}

// NewRedisStorage creates a storage scoped to namespace
func NewRedisStorage(client *redis.Client, namespace string) *RedisStorage {
	return &RedisStorage{client: client, namespace: namespace}
}

func (s *RedisStorage) key(k string) string {
	return s.client.KeyBuilder.KeySession(s.namespace, k)
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key))
	if redis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val, true, nil
}

// SetMany writes all values in one MULTI/EXEC so readers never observe a
// half-written session.
func (s *RedisStorage) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	scoped := make(map[string]string, len(values))
	for k, v := range values {
		scoped[s.key(k)] = v
	}
	if err := s.client.SetMultiple(ctx, scoped, 0); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = s.key(k)
	}
	if err := s.client.Delete(ctx, scoped...); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}
