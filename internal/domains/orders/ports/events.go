package ports

import (
	"context"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
)

// EventPublisher ships committed order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
