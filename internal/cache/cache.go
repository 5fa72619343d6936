// Package cache wraps the Redis read-through cache used for animal views.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is the key-value cache consumed by services. Invalidate must be idempotent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error
}

// AnimalKey is the single-animal view key.
func AnimalKey(animalID, ownerID uint) string {
	return fmt.Sprintf("entity:%d:owner:%d", animalID, ownerID)
}

// AnimalListKey is the owner's animal-list view key.
func AnimalListKey(ownerID uint) string {
	return fmt.Sprintf("entity_list:owner:%d", ownerID)
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Store backed by Redis. A nil client yields a no-op store.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if client == nil {
		return Noop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return payload, err
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *redisStore) Invalidate(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

type noopStore struct{}

// Noop returns a Store that never caches anything.
func Noop() Store {
	return noopStore{}
}

func (noopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (noopStore) Set(context.Context, string, []byte) error { return nil }

func (noopStore) Invalidate(context.Context, string) error { return nil }
