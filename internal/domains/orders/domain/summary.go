package domain

import "github.com/shopspring/decimal"

// Summary holds the derived, never persisted, aggregate fields of an order.
type Summary struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int64           `json:"item_count"`
}

// Summarize folds line items into the order summary.
func Summarize(items []OrderItem) Summary {
	summary := Summary{Subtotal: decimal.Zero}
	for _, item := range items {
		summary.Subtotal = summary.Subtotal.Add(item.Subtotal)
		summary.ItemCount += int64(item.Quantity)
	}
	return summary
}
