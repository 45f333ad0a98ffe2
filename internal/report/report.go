// Package report turns a day's completed orders into the aggregated sales
// summary persisted at close-day.
package report

import (
	"github.com/shopspring/decimal"

	"getbreak/backend/internal/domain"
)

// Summary is the output of Aggregate. Items maps display name to accumulated
// quantity and revenue; TopItem is the best seller by quantity.
type Summary struct {
	OrdersCount int
	TotalSales  decimal.Decimal
	Items       map[string]domain.ReportItem
	TopItem     string
}

// Aggregate reduces completed orders to a daily summary. It is deterministic
// and side-effect free: TotalSales sums each order's stored total (not a
// recomputation from lines, so adjustments recorded only at the order level
// survive), and the best seller is the name with the maximum accumulated
// quantity, ties broken by whichever name was encountered first across the
// input orders.
func Aggregate(orders []domain.Order) Summary {
	summary := Summary{
		OrdersCount: len(orders),
		TotalSales:  decimal.Zero,
		Items:       make(map[string]domain.ReportItem),
	}

	topQty := 0
	for _, order := range orders {
		summary.TotalSales = summary.TotalSales.Add(order.Total.Decimal)
		for _, line := range order.Lines {
			item := summary.Items[line.Name]
			item.Qty += line.Qty
			item.Total = domain.NewAmount(item.Total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty)))))
			summary.Items[line.Name] = item

			// Strictly greater keeps the first-encountered name on ties.
			if item.Qty > topQty {
				topQty = item.Qty
				summary.TopItem = line.Name
			}
		}
	}

	summary.TotalSales = summary.TotalSales.Round(3)
	return summary
}
