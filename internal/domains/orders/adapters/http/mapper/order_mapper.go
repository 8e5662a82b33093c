package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
)

// OrderItem is the HTTP representation of one order line.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is the HTTP representation of an order with its aggregates. Items are omitted on list pages.
type Order struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Status    string          `json:"status"`
	Items     []OrderItem     `json:"items,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int64           `json:"item_count"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderPage mirrors the paginated list envelope.
type OrderPage struct {
	Data     []Order `json:"data"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PerPage  int     `json:"per_page"`
	LastPage int     `json:"last_page"`
}

// ItemPayload is one desired line on create or update. ID is only meaningful on update.
type ItemPayload struct {
	ID        *int64          `json:"id,omitempty"`
	ProductID int64           `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderPayload is the body of POST /orders. Items stay raw until DecodeItems.
type CreateOrderPayload struct {
	UserID int64           `json:"user_id"`
	Status string          `json:"status"`
	Items  json.RawMessage `json:"items"`
}

// UpdateOrderPayload is the body of PUT /orders/:id; absent fields are left untouched.
type UpdateOrderPayload struct {
	UserID *int64          `json:"user_id"`
	Status *string         `json:"status"`
	Items  json.RawMessage `json:"items"`
}

// DecodeItems returns the desired lines and whether an items array was supplied.
// Missing, null or non-array values report ok=false and are treated as "no items".
func DecodeItems(raw json.RawMessage) (items []ordertypes.ItemInput, ok bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}
	var payload []ItemPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, false, fmt.Errorf("items: %w", err)
	}
	items = make([]ordertypes.ItemInput, 0, len(payload))
	for _, p := range payload {
		items = append(items, ordertypes.ItemInput{
			ID:        p.ID,
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
		})
	}
	return items, true, nil
}

// ToCreateInput maps the create body. Item ids in a create body are ignored.
func ToCreateInput(payload CreateOrderPayload, idempotencyKey string) (ordertypes.CreateOrderInput, error) {
	items, _, err := DecodeItems(payload.Items)
	if err != nil {
		return ordertypes.CreateOrderInput{}, err
	}
	for i := range items {
		items[i].ID = nil
	}
	return ordertypes.CreateOrderInput{
		UserID:         payload.UserID,
		Status:         payload.Status,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	}, nil
}

// ToUpdateInput maps the update body; Items is nil unless an array was supplied.
func ToUpdateInput(id int64, payload UpdateOrderPayload) (ordertypes.UpdateOrderInput, error) {
	items, ok, err := DecodeItems(payload.Items)
	if err != nil {
		return ordertypes.UpdateOrderInput{}, err
	}
	input := ordertypes.UpdateOrderInput{ID: id, UserID: payload.UserID, Status: payload.Status}
	if ok {
		input.Items = &items
	}
	return input, nil
}

// FromProjection maps an order projection, including items when loaded.
func FromProjection(p *ordertypes.OrderProjection) Order {
	if p == nil || p.Order == nil {
		return Order{}
	}
	return fromOrder(p.Order, p.Summary)
}

// FromPage maps a listing page.
func FromPage(page *ordertypes.OrderPage) OrderPage {
	if page == nil {
		return OrderPage{Data: []Order{}}
	}
	data := make([]Order, 0, len(page.Orders))
	for _, p := range page.Orders {
		data = append(data, FromProjection(p))
	}
	return OrderPage{
		Data:     data,
		Total:    page.Total,
		Page:     page.Page,
		PerPage:  page.Limit,
		LastPage: page.LastPage,
	}
}

func fromOrder(order *domain.Order, summary domain.Summary) Order {
	out := Order{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Subtotal:  summary.Subtotal,
		ItemCount: summary.ItemCount,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	if len(order.Items) > 0 {
		out.Items = make([]OrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			out.Items = append(out.Items, OrderItem{
				ID:        item.ID,
				OrderID:   item.OrderID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  item.Subtotal,
			})
		}
	}
	return out
}
