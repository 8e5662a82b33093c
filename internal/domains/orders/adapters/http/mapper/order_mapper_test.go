package mapper

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
)

func TestDecodeItems(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		ok      bool
		count   int
		wantErr bool
	}{
		{name: "missing", raw: "", ok: false},
		{name: "null", raw: "null", ok: false},
		{name: "object", raw: `{"product_id":1}`, ok: false},
		{name: "string", raw: `"nope"`, ok: false},
		{name: "empty array", raw: ` [] `, ok: true, count: 0},
		{name: "two lines", raw: `[{"product_id":1,"quantity":2,"unit_price":"10.00"},{"id":7,"product_id":2,"quantity":1,"unit_price":5}]`, ok: true, count: 2},
		{name: "bad element", raw: `[{"quantity":"two"}]`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, ok, err := DecodeItems(json.RawMessage(tc.raw))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			assert.Len(t, items, tc.count)
		})
	}
}

func TestToUpdateInput_ItemsPresence(t *testing.T) {
	var body UpdateOrderPayload
	require.NoError(t, json.Unmarshal([]byte(`{"status":"paid"}`), &body))
	input, err := ToUpdateInput(3, body)
	require.NoError(t, err)
	assert.Nil(t, input.Items)
	require.NotNil(t, input.Status)
	assert.Equal(t, "paid", *input.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"items":[]}`), &body))
	input, err = ToUpdateInput(3, body)
	require.NoError(t, err)
	require.NotNil(t, input.Items)
	assert.Empty(t, *input.Items)
}

func TestToCreateInput_DropsItemIDs(t *testing.T) {
	var body CreateOrderPayload
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":4,"items":[{"id":9,"product_id":1,"quantity":1,"unit_price":"2.50"}]}`), &body))
	input, err := ToCreateInput(body, "key")
	require.NoError(t, err)
	require.Len(t, input.Items, 1)
	assert.Nil(t, input.Items[0].ID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(input.Items[0].UnitPrice))
	assert.Equal(t, "key", input.IdempotencyKey)
}

func TestFromProjection(t *testing.T) {
	order, err := domain.NewOrder(5, 2, domain.StatusPaid)
	require.NoError(t, err)
	item, err := domain.NewOrderItem(11, 3, 2, decimal.RequireFromString("4"))
	require.NoError(t, err)
	item.OrderID = 5
	order.Items = []domain.OrderItem{*item}

	out := FromProjection(ordertypes.NewOrderProjection(order, domain.Summarize(order.Items)))
	assert.Equal(t, int64(5), out.ID)
	assert.Equal(t, "paid", out.Status)
	require.Len(t, out.Items, 1)
	assert.True(t, decimal.RequireFromString("8").Equal(out.Subtotal))
	assert.Equal(t, int64(2), out.ItemCount)

	assert.Equal(t, Order{}, FromProjection(nil))
}

func TestFromPage(t *testing.T) {
	out := FromPage(&ordertypes.OrderPage{Total: 0, Page: 1, Limit: 15, LastPage: 1})
	assert.NotNil(t, out.Data)
	assert.Equal(t, 15, out.PerPage)
}
