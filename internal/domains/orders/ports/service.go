package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
)

// Service exposes order use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderProjection, error)
	UpdateOrder(ctx context.Context, input ordertypes.UpdateOrderInput) (*ordertypes.OrderProjection, error)
	DeleteOrder(ctx context.Context, id int64) error
	GetOrder(ctx context.Context, id int64) (*ordertypes.OrderProjection, error)
	ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) (*ordertypes.OrderPage, error)
}
