package cart

import (
	"testing"

	"github.com/shopspring/decimal"

	"getbreak/backend/internal/domain"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func money(s string) domain.Amount {
	return domain.NewAmount(decimal.RequireFromString(s))
}

func testProduct() domain.Product {
	return domain.Product{ID: "prod-a", Name: "Espresso", Category: "drink", Price: money("1.500"), Active: true}
}

func testVariantProduct() (domain.Product, domain.Variant) {
	product := domain.Product{ID: "prod-b", Name: "Latte", Category: "drink", HasVariants: true, Active: true}
	variant := domain.Variant{ID: "var-l", ProductID: "prod-b", Label: "Large", Price: money("2.750"), Active: true}
	return product, variant
}

func TestAddSameProductMergesIntoOneLine(t *testing.T) {
	c := New()
	c.AddProduct(testProduct())
	c.AddProduct(testProduct())

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(lines))
	}
	if lines[0].Qty != 2 {
		t.Fatalf("expected qty 2, got %d", lines[0].Qty)
	}
}

func TestVariantLinesDoNotMergeWithBaseProductLines(t *testing.T) {
	c := New()
	product, variant := testVariantProduct()
	c.AddProduct(testProduct())
	c.AddVariant(product, variant)
	c.AddVariant(product, variant)

	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1].Qty != 2 {
		t.Fatalf("expected variant qty 2, got %d", lines[1].Qty)
	}
	if lines[1].Name != "Latte (Large)" {
		t.Fatalf("unexpected variant line name: %s", lines[1].Name)
	}
}

func TestChangeQtyRemovesLineAtZero(t *testing.T) {
	c := New()
	c.AddProduct(testProduct())
	c.ChangeQty(0, -1)
	if !c.IsEmpty() {
		t.Fatalf("expected empty cart after decrement to zero")
	}

	// Further decrements on the now-empty cart must be a silent no-op.
	c.ChangeQty(0, -1)
	if !c.IsEmpty() {
		t.Fatalf("expected cart to stay empty")
	}
}

func TestChangeQtyOutOfRangeIsNoop(t *testing.T) {
	c := New()
	c.AddProduct(testProduct())
	c.ChangeQty(5, 1)
	c.ChangeQty(-1, 1)
	if c.Lines()[0].Qty != 1 {
		t.Fatalf("expected qty unchanged, got %d", c.Lines()[0].Qty)
	}
}

func TestRemoveDeletesUnconditionally(t *testing.T) {
	c := New()
	c.AddProduct(testProduct())
	c.ChangeQty(0, 4)
	c.Remove(0)
	if !c.IsEmpty() {
		t.Fatalf("expected empty cart after remove")
	}
}

func TestTotalUsesThreeDecimalPrecision(t *testing.T) {
	c := New()
	product, variant := testVariantProduct()
	c.AddProduct(testProduct())
	c.ChangeQty(0, 1) // Espresso x2 @1.500
	c.AddVariant(product, variant)

	if got := c.Total(); !got.Equal(price("5.750")) {
		t.Fatalf("expected total 5.750, got %s", got)
	}
}

func TestLoadFromOrderReconstructsMergeKeys(t *testing.T) {
	c := New()
	c.LoadFromOrder([]domain.OrderLine{
		{OrderID: "ord-1", ProductID: "prod-a", Name: "Espresso", Qty: 2, UnitPrice: money("1.500")},
		{OrderID: "ord-1", ProductID: "prod-b", VariantID: "var-l", Name: "Latte (Large)", Qty: 1, UnitPrice: money("2.750")},
	})

	// Adding the same product from the catalog must merge into the loaded
	// line, not create a duplicate.
	c.AddProduct(testProduct())
	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines after merge, got %d", len(lines))
	}
	if lines[0].Qty != 3 {
		t.Fatalf("expected merged qty 3, got %d", lines[0].Qty)
	}

	product, variant := testVariantProduct()
	c.AddVariant(product, variant)
	if c.Len() != 2 {
		t.Fatalf("expected variant add to merge, got %d lines", c.Len())
	}
	if c.Lines()[1].Qty != 2 {
		t.Fatalf("expected variant qty 2, got %d", c.Lines()[1].Qty)
	}
}

func TestLoadFromOrderReplacesWholesale(t *testing.T) {
	c := New()
	c.AddProduct(testProduct())
	c.LoadFromOrder([]domain.OrderLine{
		{OrderID: "ord-2", ProductID: "prod-b", VariantID: "var-l", Name: "Latte (Large)", Qty: 1, UnitPrice: money("2.750")},
	})
	if c.Len() != 1 {
		t.Fatalf("expected wholesale replace, got %d lines", c.Len())
	}
	if c.Lines()[0].ProductID != "prod-b" {
		t.Fatalf("unexpected line after reload: %+v", c.Lines()[0])
	}
}

func TestChangeDue(t *testing.T) {
	if _, ok := ChangeDue(price("0"), price("5.750")); ok {
		t.Fatalf("expected change undefined when nothing paid")
	}
	if _, ok := ChangeDue(price("5.000"), price("5.750")); ok {
		t.Fatalf("expected change undefined when paid below total")
	}
	change, ok := ChangeDue(price("10.000"), price("5.750"))
	if !ok {
		t.Fatalf("expected change to be defined")
	}
	if !change.Equal(price("4.250")) {
		t.Fatalf("expected change 4.250, got %s", change)
	}
}
