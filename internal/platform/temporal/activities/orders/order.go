package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	ordersports "github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

const (
	// PersistOrderActivityName persists an order together with its items.
	PersistOrderActivityName = "orders.activities.PersistOrder"
)

// Application error types carried across the Temporal boundary so callers can map them back.
const (
	ErrTypeInvalidInput        = "orders.InvalidInput"
	ErrTypeIdempotencyConflict = "orders.IdempotencyConflict"
	ErrTypeIdempotencyBusy     = "orders.IdempotencyInProgress"
	ErrTypeCreateFailed        = "orders.CreateFailed"
	ErrTypeReloadFailed        = "orders.ReloadFailed"
)

// PersistOrderInput is the activity payload. The idempotency key travels beside the command
// because the command hides it from JSON.
type PersistOrderInput struct {
	Command        ordertypes.CreateOrderInput
	IdempotencyKey string
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ordersports.Service
}

// NewActivities wires the orders service into the Temporal activities bundle.
func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// PersistOrder creates the order and returns its projection. Validation and idempotency
// failures are non-retryable, and so is any failure after the order committed;
// store failures before the commit are retried by the sequence policy.
func (a *Activities) PersistOrder(ctx context.Context, input PersistOrderInput) (*ordertypes.OrderProjection, error) {
	logger := activity.GetLogger(ctx)
	userID := input.Command.UserID
	if a == nil || a.service == nil {
		logger.Error("order persist activity not initialized", "userId", userID)
		return nil, errors.New("order persist activity not initialized")
	}
	logger.Info("PersistOrder activity started", "userId", userID, "items", len(input.Command.Items))
	command := input.Command
	command.IdempotencyKey = input.IdempotencyKey
	projection, err := a.service.CreateOrder(ctx, command)
	var committed *application.CommittedError
	if errors.As(err, &committed) {
		// the order exists; read it again instead of creating another one
		logger.Warn("PersistOrder reload failed after commit", "orderId", committed.OrderID, "error", committed.Cause)
		projection, err = a.service.GetOrder(ctx, committed.OrderID)
		if err != nil {
			err = &application.CommittedError{OrderID: committed.OrderID, Cause: err}
		}
	}
	if err != nil {
		logger.Error("PersistOrder activity failed", "userId", userID, "error", err)
		return nil, toApplicationError(err)
	}
	if projection != nil && projection.Order != nil {
		logger.Info("PersistOrder activity completed", "orderId", projection.Order.ID)
	} else {
		logger.Info("PersistOrder activity completed")
	}
	return projection, nil
}

func toApplicationError(err error) error {
	var committed *application.CommittedError
	switch {
	case errors.As(err, &committed):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeReloadFailed, err, committed.OrderID)
	case errors.Is(err, application.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	case errors.Is(err, ordersports.ErrIdempotencyInProgress):
		return temporal.NewApplicationErrorWithCause(err.Error(), ErrTypeIdempotencyBusy, err)
	case errors.Is(err, ordersports.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, err)
	case errors.Is(err, application.ErrCreateFailed):
		return temporal.NewApplicationErrorWithCause(err.Error(), ErrTypeCreateFailed, err)
	default:
		return err
	}
}
