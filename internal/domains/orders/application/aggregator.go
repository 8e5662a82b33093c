package application

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

// Aggregator attaches derived summaries to orders on the read path.
type Aggregator struct {
	items ports.ItemStore
}

// NewAggregator wires the item store used for batched summaries.
func NewAggregator(items ports.ItemStore) Aggregator {
	return Aggregator{items: items}
}

// Project summarizes an order whose items are already loaded.
func (a Aggregator) Project(order *domain.Order) *ordertypes.OrderProjection {
	return ordertypes.NewOrderProjection(order, domain.Summarize(order.Items))
}

// ProjectAll summarizes orders without loading their items, with one grouped query.
// Orders without items get a zero summary.
func (a Aggregator) ProjectAll(ctx context.Context, orders []*domain.Order) ([]*ordertypes.OrderProjection, error) {
	if len(orders) == 0 {
		return []*ordertypes.OrderProjection{}, nil
	}
	ids := make([]int64, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	summaries, err := a.items.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	result := make([]*ordertypes.OrderProjection, 0, len(orders))
	for _, order := range orders {
		summary, ok := summaries[order.ID]
		if !ok {
			summary = domain.Summarize(nil)
		}
		result = append(result, ordertypes.NewOrderProjection(order, summary))
	}
	return result, nil
}
