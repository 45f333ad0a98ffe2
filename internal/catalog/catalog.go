// Package catalog is the read-mostly product/variant provider the cashier
// screen works against, with a thin admin side for maintaining items.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"getbreak/backend/internal/cache"
	"getbreak/backend/internal/domain"
	"getbreak/backend/internal/store"
)

// ErrUnavailable wraps catalog fetch failures so callers can tell a catalog
// outage apart from an order store failure.
var ErrUnavailable = errors.New("catalog unavailable")

var ErrInvalidProduct = errors.New("invalid product")

type Provider struct {
	repo  store.Repository
	cache cache.CatalogCache
	ttl   time.Duration
}

func NewProvider(repo store.Repository, catalogCache cache.CatalogCache, ttl time.Duration) *Provider {
	if catalogCache == nil {
		catalogCache = cache.NoopCatalogCache{}
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Provider{repo: repo, cache: catalogCache, ttl: ttl}
}

// ListActiveProducts returns the active products of a category, newest data
// from the store with a short cache in front. Cache failures degrade to a
// direct read.
func (p *Provider) ListActiveProducts(ctx context.Context, category string) ([]domain.Product, error) {
	category = strings.ToLower(strings.TrimSpace(category))

	if cached, ok, err := p.cache.GetProducts(ctx, category); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("[catalog] WARN: cache read failed category=%s: %v", category, err)
	}

	products, err := p.repo.ListActiveProducts(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := p.cache.SetProducts(ctx, category, products, p.ttl); err != nil {
		log.Printf("[catalog] WARN: cache write failed category=%s: %v", category, err)
	}
	return products, nil
}

func (p *Provider) ListActiveVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	variants, err := p.repo.ListActiveVariants(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return variants, nil
}

// GetActiveProduct fetches one product for a cart addition. Inactive products
// are reported as not found: a disabled item must not be sellable.
func (p *Provider) GetActiveProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := p.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !product.Active {
		return nil, store.ErrNotFound
	}
	return product, nil
}

func (p *Provider) GetActiveVariant(ctx context.Context, productID string, variantID string) (*domain.Variant, error) {
	variant, err := p.repo.GetVariantByID(ctx, productID, variantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !variant.Active {
		return nil, store.ErrNotFound
	}
	return variant, nil
}

// CreateProduct creates a product with either a base price or a set of
// variant prices (but not neither). Prices are parsed at 3-decimal precision.
func (p *Provider) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if req.Name == "" || req.Category == "" {
		return nil, ErrInvalidProduct
	}

	hasVariants := len(req.Variants) > 0
	basePrice := decimal.Zero
	if !hasVariants {
		parsed, err := parsePrice(req.Price)
		if err != nil {
			return nil, err
		}
		basePrice = parsed
	}

	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Category:    req.Category,
		Price:       domain.NewAmount(basePrice),
		HasVariants: hasVariants,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	variants := make([]domain.Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		label := strings.TrimSpace(v.Label)
		if label == "" {
			return nil, ErrInvalidProduct
		}
		parsed, err := parsePrice(v.Price)
		if err != nil {
			return nil, err
		}
		variants = append(variants, domain.Variant{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			Label:     label,
			Price:     domain.NewAmount(parsed),
			Active:    true,
		})
	}

	created, err := p.repo.CreateProduct(ctx, product, variants)
	if err != nil {
		return nil, err
	}
	p.invalidate(ctx, created.Category)
	return created, nil
}

func (p *Provider) SetProductActive(ctx context.Context, id string, active bool) (*domain.Product, error) {
	product, err := p.repo.SetProductActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	p.invalidate(ctx, product.Category)
	return product, nil
}

// DeleteProduct removes the product and its variants. Historical order lines
// keep their snapshotted name and price and are unaffected.
func (p *Provider) DeleteProduct(ctx context.Context, id string) error {
	product, err := p.repo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	p.invalidate(ctx, product.Category)
	return nil
}

func (p *Provider) invalidate(ctx context.Context, category string) {
	if err := p.cache.InvalidateProducts(ctx, category); err != nil {
		log.Printf("[catalog] WARN: cache invalidate failed category=%s: %v", category, err)
	}
}

func parsePrice(raw string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidProduct
	}
	if parsed.Sign() <= 0 {
		return decimal.Zero, ErrInvalidProduct
	}
	return parsed.Round(3), nil
}
