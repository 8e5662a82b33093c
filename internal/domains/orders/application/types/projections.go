package types

import (
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
)

// OrderProjection transports an order aggregate together with its derived summary.
type OrderProjection struct {
	Order   *domain.Order
	Summary domain.Summary
}

// NewOrderProjection wraps an aggregate with its summary.
func NewOrderProjection(order *domain.Order, summary domain.Summary) *OrderProjection {
	if order == nil {
		return nil
	}
	return &OrderProjection{Order: order, Summary: summary}
}
