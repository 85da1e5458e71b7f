package service

import (
	"context"
	"sync"
	"time"

	"github.com/croche-da-t/server/internal/domain"
)

// CatalogCacheStore caches the rendered category list. The catalog changes
// rarely and is read on every storefront load, so a short TTL removes almost
// all list queries from the database.
type CatalogCacheStore interface {
	Get(ctx context.Context) ([]domain.Category, bool, error)
	Set(ctx context.Context, categories []domain.Category, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopCatalogCacheStore struct{}

func NewNoopCatalogCacheStore() *NoopCatalogCacheStore {
	return &NoopCatalogCacheStore{}
}

func (s *NoopCatalogCacheStore) Get(context.Context) ([]domain.Category, bool, error) {
	return nil, false, nil
}

func (s *NoopCatalogCacheStore) Set(context.Context, []domain.Category, time.Duration) error {
	return nil
}

func (s *NoopCatalogCacheStore) Invalidate(context.Context) error {
	return nil
}

type InMemoryCatalogCacheStore struct {
	mu        sync.RWMutex
	items     []domain.Category
	expiresAt time.Time
}

func NewInMemoryCatalogCacheStore() *InMemoryCatalogCacheStore {
	return &InMemoryCatalogCacheStore{}
}

func (s *InMemoryCatalogCacheStore) Get(context.Context) ([]domain.Category, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.items == nil || time.Now().After(s.expiresAt) {
		return nil, false, nil
	}
	out := make([]domain.Category, len(s.items))
	copy(out, s.items)
	return out, true, nil
}

func (s *InMemoryCatalogCacheStore) Set(_ context.Context, categories []domain.Category, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	items := make([]domain.Category, len(categories))
	copy(items, categories)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.expiresAt = time.Now().Add(ttl)
	return nil
}

func (s *InMemoryCatalogCacheStore) Invalidate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.expiresAt = time.Time{}
	return nil
}
