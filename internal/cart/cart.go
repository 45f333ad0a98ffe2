// Package cart holds the in-memory line items of the order currently being
// built. A cart is transient: it lives for the editing session only and is
// never persisted directly.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"getbreak/backend/internal/domain"
)

// Line is one aggregated cart row. Key collapses product+variant identity so
// repeated additions merge instead of duplicating rows.
type Line struct {
	Key       string          `json:"key"`
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	UnitPrice domain.Amount   `json:"unit_price"`
	Qty       int             `json:"qty"`
}

// Sum returns qty x unit price for the line.
func (l Line) Sum() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart keeps lines in insertion order.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{lines: make([]Line, 0, 8)}
}

func lineKey(productID string, variantID string) string {
	if variantID == "" {
		return productID
	}
	return fmt.Sprintf("%s-%s", productID, variantID)
}

// AddProduct adds one unit of a base-priced product, merging into an existing
// line with the same key. The catalog's current price is snapshotted as the
// unit price on first add.
func (c *Cart) AddProduct(product domain.Product) {
	c.add(Line{
		Key:       lineKey(product.ID, ""),
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Qty:       1,
	})
}

// AddVariant adds one unit of a variant-priced product. The displayed name
// carries the variant label, matching how the order line is later persisted.
func (c *Cart) AddVariant(product domain.Product, variant domain.Variant) {
	c.add(Line{
		Key:       lineKey(product.ID, variant.ID),
		ProductID: product.ID,
		VariantID: variant.ID,
		Name:      fmt.Sprintf("%s (%s)", product.Name, variant.Label),
		UnitPrice: variant.Price,
		Qty:       1,
	})
}

func (c *Cart) add(line Line) {
	for i := range c.lines {
		if c.lines[i].Key == line.Key {
			c.lines[i].Qty++
			return
		}
	}
	c.lines = append(c.lines, line)
}

// ChangeQty adjusts the quantity of the line at index by delta. A resulting
// quantity of zero or less removes the line. Out-of-range indexes are a no-op.
func (c *Cart) ChangeQty(index int, delta int) {
	if index < 0 || index >= len(c.lines) {
		return
	}
	c.lines[index].Qty += delta
	if c.lines[index].Qty <= 0 {
		c.Remove(index)
	}
}

// Remove deletes the line at index unconditionally. Out-of-range is a no-op.
func (c *Cart) Remove(index int) {
	if index < 0 || index >= len(c.lines) {
		return
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Total sums qty x unit price over all lines at the currency's fixed
// 3-decimal precision. The order total recorded at completion time must equal
// this value exactly.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Sum())
	}
	return total.Round(3)
}

// Clear empties the cart. Called after a successful order completion or when
// an edit is abandoned.
func (c *Cart) Clear() {
	c.lines = c.lines[:0]
}

// LoadFromOrder replaces the cart wholesale with lines reconstructed from a
// persisted order, for editing. Reconstructed keys collapse to the same
// product/variant identity AddProduct and AddVariant use, so further catalog
// additions merge into the loaded lines instead of duplicating them.
func (c *Cart) LoadFromOrder(lines []domain.OrderLine) {
	c.lines = make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Qty < 1 {
			continue
		}
		c.lines = append(c.lines, Line{
			Key:       lineKey(line.ProductID, line.VariantID),
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Qty:       line.Qty,
		})
	}
}

// OrderLines converts the cart into persistable order lines for orderID.
func (c *Cart) OrderLines(orderID string) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(c.lines))
	for _, line := range c.lines {
		lines = append(lines, domain.OrderLine{
			OrderID:   orderID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      line.Name,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
		})
	}
	return lines
}

// ChangeDue computes the change for a cash payment. The result is defined
// only when the paid amount is positive and covers the total; otherwise ok is
// false and the caller should render a placeholder instead of a negative
// amount.
func ChangeDue(paid decimal.Decimal, total decimal.Decimal) (decimal.Decimal, bool) {
	if paid.Sign() <= 0 {
		return decimal.Zero, false
	}
	change := paid.Sub(total).Round(3)
	if change.Sign() < 0 {
		return decimal.Zero, false
	}
	return change, true
}
