package cache

import (
	"context"
	"time"

	"getbreak/backend/internal/domain"
)

// CatalogCache caches active-product listings per category. Admin catalog
// writes invalidate the affected category so cashiers never see stale items
// past the TTL window.
type CatalogCache interface {
	GetProducts(ctx context.Context, category string) ([]domain.Product, bool, error)
	SetProducts(ctx context.Context, category string, products []domain.Product, ttl time.Duration) error
	InvalidateProducts(ctx context.Context, category string) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) GetProducts(_ context.Context, _ string) ([]domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) SetProducts(_ context.Context, _ string, _ []domain.Product, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) InvalidateProducts(_ context.Context, _ string) error {
	return nil
}
