package orders

import (
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-admin-api/internal/platform/temporal/activities/orders"
	"github.com/Apurer/go-gin-admin-api/internal/platform/temporal/sequences"
)

const (
	// OrderCreationWorkflowName is the public identifier for registering the workflow.
	OrderCreationWorkflowName = "orders.workflows.Creation"
	// OrderCreationTaskQueue is the queue consumed by the worker processing order workflows.
	OrderCreationTaskQueue = "ORDER_CREATION"
)

// OrderCreationWorkflowInput captures the payload required to create an order.
type OrderCreationWorkflowInput struct {
	Command        ordertypes.CreateOrderInput
	IdempotencyKey string
	TraceID        string
}

// OrderCreationWorkflow orchestrates the activities needed to persist an order with its items.
func OrderCreationWorkflow(ctx workflow.Context, input OrderCreationWorkflowInput) (*ordertypes.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	userID := input.Command.UserID
	logger.Info("OrderCreationWorkflow started", withTraceID(input.TraceID, "userId", userID)...)
	projection, err := sequences.RunOrderPersistenceSequence(ctx, orderactivities.PersistOrderInput{
		Command:        input.Command,
		IdempotencyKey: input.IdempotencyKey,
	})
	if err != nil {
		logger.Error("OrderCreationWorkflow failed", withTraceID(input.TraceID, "userId", userID, "error", err)...)
		return nil, err
	}
	if projection != nil && projection.Order != nil {
		logger.Info("OrderCreationWorkflow completed", withTraceID(input.TraceID, "orderId", projection.Order.ID)...)
	} else {
		logger.Info("OrderCreationWorkflow completed", withTraceID(input.TraceID)...)
	}
	return projection, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
