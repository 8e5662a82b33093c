package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_DefaultsToPending(t *testing.T) {
	order, err := NewOrder(0, 7, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, int64(7), order.UserID)
}

func TestNewOrder_RejectsUnknownStatusAndUser(t *testing.T) {
	_, err := NewOrder(0, 7, Status("lost"))
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = NewOrder(0, 0, StatusPaid)
	require.ErrorIs(t, err, ErrInvalidUserID)
}

func TestOrderUpdateStatus_RejectsEmpty(t *testing.T) {
	order, err := NewOrder(1, 7, StatusShipped)
	require.NoError(t, err)

	require.ErrorIs(t, order.UpdateStatus(""), ErrInvalidStatus)
	assert.Equal(t, StatusShipped, order.Status)

	require.NoError(t, order.UpdateStatus(StatusDelivered))
	assert.Equal(t, StatusDelivered, order.Status)
}

func TestNewOrderItem_DerivesSubtotal(t *testing.T) {
	item, err := NewOrderItem(0, 3, 4, decimal.RequireFromString("2.50"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10").Equal(item.Subtotal))
	require.NoError(t, item.Validate())
}

func TestOrderItemApply_LeavesItemUntouchedOnError(t *testing.T) {
	item, err := NewOrderItem(9, 3, 1, decimal.NewFromInt(5))
	require.NoError(t, err)

	err = item.Apply(3, 0, decimal.NewFromInt(5))
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, int32(1), item.Quantity)

	err = item.Apply(3, 2, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrInvalidUnitPrice)

	err = item.Apply(0, 2, decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrInvalidProductID)

	require.NoError(t, item.Apply(4, 3, decimal.NewFromInt(2)))
	assert.Equal(t, int64(9), item.ID)
	assert.True(t, decimal.NewFromInt(6).Equal(item.Subtotal))
}

func TestOrderItemValidate_DetectsStaleSubtotal(t *testing.T) {
	item := OrderItem{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(3), Subtotal: decimal.NewFromInt(5)}
	require.Error(t, item.Validate())
}

func TestSummarize(t *testing.T) {
	empty := Summarize(nil)
	assert.True(t, empty.Subtotal.IsZero())
	assert.Zero(t, empty.ItemCount)

	first, err := NewOrderItem(0, 1, 2, decimal.NewFromInt(10))
	require.NoError(t, err)
	second, err := NewOrderItem(0, 2, 1, decimal.NewFromInt(5))
	require.NoError(t, err)

	summary := Summarize([]OrderItem{*first, *second})
	assert.True(t, decimal.NewFromInt(25).Equal(summary.Subtotal))
	assert.Equal(t, int64(3), summary.ItemCount)
}

func TestOrderClone_CopiesItems(t *testing.T) {
	order, err := NewOrder(1, 2, StatusPaid)
	require.NoError(t, err)
	order.Items = []OrderItem{{ID: 1, Quantity: 1}}

	clone := order.Clone()
	clone.Items[0].Quantity = 5
	assert.Equal(t, int32(1), order.Items[0].Quantity)
}
