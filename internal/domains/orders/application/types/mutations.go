package types

import "github.com/shopspring/decimal"

// ItemInput describes one desired line item. ID is nil for lines that do not exist yet.
type ItemInput struct {
	ID        *int64          `json:"id,omitempty"`
	ProductID int64           `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderInput carries the create command. An empty Items slice creates an order without lines.
type CreateOrderInput struct {
	UserID         int64       `json:"user_id"`
	Status         string      `json:"status"`
	Items          []ItemInput `json:"items"`
	IdempotencyKey string      `json:"-"`
}

// UpdateOrderInput carries a partial update. Nil fields are left untouched; a non-nil
// Items, even empty, is the complete desired item set for the order.
type UpdateOrderInput struct {
	ID     int64        `json:"id"`
	UserID *int64       `json:"user_id,omitempty"`
	Status *string      `json:"status,omitempty"`
	Items  *[]ItemInput `json:"items,omitempty"`
}
