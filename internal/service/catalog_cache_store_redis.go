package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCatalogCacheStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisCatalogCacheStore(client redis.UniversalClient, key string) *RedisCatalogCacheStore {
	if key == "" {
		key = "catalog:categories"
	}
	return &RedisCatalogCacheStore{client: client, key: key}
}

func (s *RedisCatalogCacheStore) Get(ctx context.Context) ([]domain.Category, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	raw, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var categories []domain.Category
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		// A corrupt entry behaves like a miss so the next Set repairs it.
		_ = s.client.Del(ctx, s.key).Err()
		return nil, false, nil
	}
	return categories, true, nil
}

func (s *RedisCatalogCacheStore) Set(ctx context.Context, categories []domain.Category, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, raw, ttl).Err()
}

func (s *RedisCatalogCacheStore) Invalidate(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, s.key).Err()
}
