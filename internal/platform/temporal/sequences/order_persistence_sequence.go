package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-admin-api/internal/platform/temporal/activities/orders"
)

// RunOrderPersistenceSequence executes the ordered set of activities needed to persist an order.
func RunOrderPersistenceSequence(ctx workflow.Context, input orderactivities.PersistOrderInput) (*ordertypes.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	userID := input.Command.UserID
	logger.Info("order persistence sequence started", "userId", userID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				orderactivities.ErrTypeInvalidInput,
				orderactivities.ErrTypeIdempotencyConflict,
				orderactivities.ErrTypeReloadFailed,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var projection ordertypes.OrderProjection
	err := workflow.ExecuteActivity(ctx, orderactivities.PersistOrderActivityName, input).Get(ctx, &projection)
	if err != nil {
		logger.Error("order persistence sequence failed", "userId", userID, "error", err)
		return nil, err
	}
	if projection.Order != nil {
		logger.Info("order persistence sequence completed", "orderId", projection.Order.ID)
	} else {
		logger.Info("order persistence sequence completed")
	}
	return &projection, nil
}
