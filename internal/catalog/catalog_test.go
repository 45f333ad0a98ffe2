package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"getbreak/backend/internal/domain"
	"getbreak/backend/internal/store"
	"getbreak/backend/internal/store/memory"
)

type cacheStub struct {
	products    map[string][]domain.Product
	failReads   bool
	sets        int
	invalidates int
}

func newCacheStub() *cacheStub {
	return &cacheStub{products: make(map[string][]domain.Product)}
}

func (c *cacheStub) GetProducts(_ context.Context, category string) ([]domain.Product, bool, error) {
	if c.failReads {
		return nil, false, errors.New("cache down")
	}
	products, ok := c.products[category]
	return products, ok, nil
}

func (c *cacheStub) SetProducts(_ context.Context, category string, products []domain.Product, _ time.Duration) error {
	c.sets++
	c.products[category] = products
	return nil
}

func (c *cacheStub) InvalidateProducts(_ context.Context, category string) error {
	c.invalidates++
	delete(c.products, category)
	return nil
}

func TestListActiveProductsPopulatesAndServesCache(t *testing.T) {
	stub := newCacheStub()
	provider := NewProvider(memory.NewSeeded(), stub, time.Minute)
	ctx := context.Background()

	first, err := provider.ListActiveProducts(ctx, "drink")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("expected seeded drinks")
	}
	if stub.sets != 1 {
		t.Fatalf("expected one cache write, got %d", stub.sets)
	}

	second, err := provider.ListActiveProducts(ctx, "drink")
	if err != nil {
		t.Fatalf("cached list: %v", err)
	}
	if stub.sets != 1 {
		t.Fatalf("expected cache hit, got %d writes", stub.sets)
	}
	if len(second) != len(first) {
		t.Fatalf("cache returned %d products, store returned %d", len(second), len(first))
	}
}

func TestListActiveProductsDegradesOnCacheFailure(t *testing.T) {
	stub := newCacheStub()
	stub.failReads = true
	provider := NewProvider(memory.NewSeeded(), stub, time.Minute)

	products, err := provider.ListActiveProducts(context.Background(), "food")
	if err != nil {
		t.Fatalf("expected direct read on cache failure, got %v", err)
	}
	if len(products) == 0 {
		t.Fatal("expected seeded food items")
	}
}

func TestCreateProductInvalidatesCategory(t *testing.T) {
	stub := newCacheStub()
	provider := NewProvider(memory.NewSeeded(), stub, time.Minute)
	ctx := context.Background()

	if _, err := provider.ListActiveProducts(ctx, "drink"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	created, err := provider.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:     "Iced Tea",
		Category: "Drink",
		Price:    "0.900",
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.Category != "drink" {
		t.Fatalf("expected normalized category, got %s", created.Category)
	}
	if stub.invalidates != 1 {
		t.Fatalf("expected one invalidation, got %d", stub.invalidates)
	}

	products, err := provider.ListActiveProducts(ctx, "drink")
	if err != nil {
		t.Fatalf("list after create: %v", err)
	}
	found := false
	for _, p := range products {
		if p.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected new product in listing after invalidation")
	}
}

func TestCreateProductValidation(t *testing.T) {
	provider := NewProvider(memory.NewSeeded(), nil, 0)
	ctx := context.Background()

	cases := []domain.ProductCreateRequest{
		{Name: "", Category: "drink", Price: "1.000"},
		{Name: "No Category", Category: "", Price: "1.000"},
		{Name: "Bad Price", Category: "drink", Price: "abc"},
		{Name: "Zero Price", Category: "drink", Price: "0"},
		{Name: "Negative", Category: "drink", Price: "-1.000"},
		{Name: "Blank Label", Category: "drink", Variants: []domain.VariantPriceRequest{{Label: " ", Price: "1.000"}}},
		{Name: "Bad Variant Price", Category: "drink", Variants: []domain.VariantPriceRequest{{Label: "Small", Price: "x"}}},
	}
	for _, req := range cases {
		if _, err := provider.CreateProduct(ctx, req); !errors.Is(err, ErrInvalidProduct) {
			t.Fatalf("expected ErrInvalidProduct for %+v, got %v", req, err)
		}
	}

	created, err := provider.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:     "Mocha",
		Category: "drink",
		Variants: []domain.VariantPriceRequest{
			{Label: "Small", Price: "1.700"},
			{Label: "Large", Price: "2.500"},
		},
	})
	if err != nil {
		t.Fatalf("create variant product: %v", err)
	}
	if !created.HasVariants || !created.Price.IsZero() {
		t.Fatalf("expected variant product with zero base price, got %+v", created)
	}

	variants, err := provider.ListActiveVariants(ctx, created.ID)
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
}

func TestGetActiveProductHidesDisabled(t *testing.T) {
	repo := memory.NewSeeded()
	provider := NewProvider(repo, nil, 0)
	ctx := context.Background()

	if _, err := provider.GetActiveProduct(ctx, "prod-espresso"); err != nil {
		t.Fatalf("get active product: %v", err)
	}

	if _, err := provider.SetProductActive(ctx, "prod-espresso", false); err != nil {
		t.Fatalf("disable product: %v", err)
	}
	if _, err := provider.GetActiveProduct(ctx, "prod-espresso"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for disabled product, got %v", err)
	}
}
