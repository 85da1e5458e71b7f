package service

import (
	"context"
	"time"

	"github.com/croche-da-t/server/internal/domain"
)

// CachedCatalogResolver answers category list reads from the cache store and
// falls back to the database on a miss. Cache failures are never surfaced to
// the caller; the database stays the source of truth.
type CachedCatalogResolver struct {
	store      CatalogCacheStore
	categories *CategoryService
	ttl        time.Duration
}

func NewCachedCatalogResolver(store CatalogCacheStore, categories *CategoryService, ttl time.Duration) *CachedCatalogResolver {
	if store == nil {
		store = NewNoopCatalogCacheStore()
	}
	return &CachedCatalogResolver{store: store, categories: categories, ttl: ttl}
}

func (r *CachedCatalogResolver) List(ctx context.Context) ([]domain.Category, error) {
	if r.ttl > 0 {
		cached, ok, err := r.store.Get(ctx)
		if err == nil && ok {
			return cached, nil
		}
	}

	categories, err := r.categories.List()
	if err != nil {
		return nil, err
	}
	if r.ttl > 0 {
		_ = r.store.Set(ctx, categories, r.ttl)
	}
	return categories, nil
}

func (r *CachedCatalogResolver) Invalidate(ctx context.Context) error {
	return r.store.Invalidate(ctx)
}
