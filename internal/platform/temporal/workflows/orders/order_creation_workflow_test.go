package orders

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-admin-api/internal/platform/temporal/activities/orders"
)

func newEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *memory.Store) {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	store := memory.NewStore()
	svc := application.NewService(store, store.Orders(), store.Items(),
		application.WithIdempotencyStore(memory.NewIdempotencyStore()))
	acts := orderactivities.NewActivities(svc)
	env.RegisterActivityWithOptions(acts.PersistOrder, activity.RegisterOptions{Name: orderactivities.PersistOrderActivityName})
	return env, store
}

func TestOrderCreationWorkflow_PersistsOrderWithItems(t *testing.T) {
	env, _ := newEnv(t)

	env.ExecuteWorkflow(OrderCreationWorkflow, OrderCreationWorkflowInput{
		Command: ordertypes.CreateOrderInput{
			UserID: 4,
			Items: []ordertypes.ItemInput{
				{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10")},
				{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("5")},
			},
		},
		IdempotencyKey: "wf-key",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var projection ordertypes.OrderProjection
	require.NoError(t, env.GetWorkflowResult(&projection))
	require.NotNil(t, projection.Order)
	assert.Len(t, projection.Order.Items, 2)
	assert.True(t, decimal.RequireFromString("25").Equal(projection.Summary.Subtotal))
	assert.Equal(t, int64(3), projection.Summary.ItemCount)
}

func TestOrderCreationWorkflow_InvalidInputIsNotRetried(t *testing.T) {
	env, store := newEnv(t)

	env.ExecuteWorkflow(OrderCreationWorkflow, OrderCreationWorkflowInput{
		Command: ordertypes.CreateOrderInput{UserID: 0},
	})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, orderactivities.ErrTypeInvalidInput, appErr.Type())
	assert.True(t, appErr.NonRetryable())

	page, listErr := application.NewService(store, store.Orders(), store.Items()).
		ListOrders(t.Context(), ordertypes.ListOrdersInput{})
	require.NoError(t, listErr)
	assert.Zero(t, page.Total)
}
