package adminserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imagesmemory "github.com/Apurer/go-gin-admin-api/internal/domains/images/adapters/memory"
	imagesapp "github.com/Apurer/go-gin-admin-api/internal/domains/images/application"
	orderhttpmapper "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/http/mapper"
	ordersmemory "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/memory"
	orderworkflows "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-admin-api/internal/shared/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store := ordersmemory.NewStore()
	orders := ordersapp.NewService(store, store.Orders(), store.Items(),
		ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore()))
	images := imagesapp.NewService(imagesmemory.NewRepository())
	return NewRouter(ApiHandleFunctions{
		OrderAPI: NewOrderAPI(orders, orderworkflows.NewInlineOrderWorkflows(orders)),
		ImageAPI: NewImageAPI(images),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) orderhttpmapper.Order {
	t.Helper()
	var out orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var out apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateOrder_ReturnsTotals(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/admin/v1/orders",
		`{"user_id":7,"items":[{"product_id":1,"quantity":2,"unit_price":"10.00"},{"product_id":2,"quantity":1,"unit_price":"5.50"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order := decodeOrder(t, rec)
	assert.Positive(t, order.ID)
	assert.Equal(t, "pending", order.Status)
	assert.Len(t, order.Items, 2)
	assert.True(t, decimal.RequireFromString("25.5").Equal(order.Subtotal))
	assert.Equal(t, int64(3), order.ItemCount)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestCreateOrder_NonArrayItemsCreatesEmptyOrder(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/admin/v1/orders", `{"user_id":7,"items":{"product_id":1}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeOrder(t, rec)
	assert.Empty(t, order.Items)
	assert.True(t, order.Subtotal.IsZero())
	assert.Zero(t, order.ItemCount)
}

func TestCreateOrder_ValidationProblem(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/admin/v1/orders",
		`{"user_id":7,"items":[{"product_id":1,"quantity":0,"unit_price":"1"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem.Type)

	rec = doJSON(t, router, http.MethodPost, "/admin/v1/orders", `{"user_id":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeBadRequest, decodeProblem(t, rec).Type)
}

func TestCreateOrder_IdempotencyKeyReplaysAndConflicts(t *testing.T) {
	router := newTestRouter(t)
	body := `{"user_id":3,"items":[{"product_id":9,"quantity":1,"unit_price":"4"}]}`

	first := doJSON(t, router, http.MethodPost, "/admin/v1/orders", body, HeaderIdempotencyKey, "abc")
	require.Equal(t, http.StatusCreated, first.Code)
	second := doJSON(t, router, http.MethodPost, "/admin/v1/orders", body, HeaderIdempotencyKey, "abc")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decodeOrder(t, first).ID, decodeOrder(t, second).ID)

	conflict := doJSON(t, router, http.MethodPost, "/admin/v1/orders", `{"user_id":4}`, HeaderIdempotencyKey, "abc")
	require.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, apierrors.TypeConflict, decodeProblem(t, conflict).Type)
}

func TestUpdateOrder_ReconcilesItems(t *testing.T) {
	router := newTestRouter(t)
	created := decodeOrder(t, doJSON(t, router, http.MethodPost, "/admin/v1/orders",
		`{"user_id":1,"items":[{"product_id":1,"quantity":1,"unit_price":"2"},{"product_id":2,"quantity":1,"unit_price":"3"}]}`))
	require.Len(t, created.Items, 2)
	keep := created.Items[0]

	body := `{"status":"paid","items":[{"id":` + jsonInt(keep.ID) + `,"product_id":1,"quantity":4,"unit_price":"2"},{"product_id":5,"quantity":1,"unit_price":"1"}]}`
	rec := doJSON(t, router, http.MethodPut, "/admin/v1/orders/"+jsonInt(created.ID), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeOrder(t, rec)
	assert.Equal(t, "paid", updated.Status)
	require.Len(t, updated.Items, 2)
	assert.True(t, decimal.RequireFromString("9").Equal(updated.Subtotal))
	assert.Equal(t, int64(5), updated.ItemCount)
	ids := []int64{updated.Items[0].ID, updated.Items[1].ID}
	assert.Contains(t, ids, keep.ID)
	assert.NotContains(t, ids, created.Items[1].ID)
}

func TestUpdateOrder_WithoutItemsKeepsLines(t *testing.T) {
	router := newTestRouter(t)
	created := decodeOrder(t, doJSON(t, router, http.MethodPost, "/admin/v1/orders",
		`{"user_id":1,"items":[{"product_id":1,"quantity":2,"unit_price":"2"}]}`))

	rec := doJSON(t, router, http.MethodPut, "/admin/v1/orders/"+jsonInt(created.ID), `{"user_id":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeOrder(t, rec)
	assert.Equal(t, int64(2), updated.UserID)
	assert.Len(t, updated.Items, 1)
	assert.Equal(t, int64(2), updated.ItemCount)
}

func TestUpdateOrder_EmptyStatusIsRejected(t *testing.T) {
	router := newTestRouter(t)
	created := decodeOrder(t, doJSON(t, router, http.MethodPost, "/admin/v1/orders", `{"user_id":1,"status":"shipped"}`))

	rec := doJSON(t, router, http.MethodPut, "/admin/v1/orders/"+jsonInt(created.ID), `{"status":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec).Type)

	after := decodeOrder(t, doJSON(t, router, http.MethodGet, "/admin/v1/orders/"+jsonInt(created.ID), ""))
	assert.Equal(t, "shipped", after.Status)
}

func TestUpdateOrder_ForeignItemIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	created := decodeOrder(t, doJSON(t, router, http.MethodPost, "/admin/v1/orders",
		`{"user_id":1,"items":[{"product_id":1,"quantity":2,"unit_price":"2"}]}`))

	rec := doJSON(t, router, http.MethodPut, "/admin/v1/orders/"+jsonInt(created.ID),
		`{"items":[{"id":999,"product_id":1,"quantity":1,"unit_price":"1"}]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order_item", decodeProblem(t, rec).Extensions["resourceType"])

	after := decodeOrder(t, doJSON(t, router, http.MethodGet, "/admin/v1/orders/"+jsonInt(created.ID), ""))
	require.Len(t, after.Items, 1)
	assert.Equal(t, created.Items[0].ID, after.Items[0].ID)
	assert.Equal(t, created.Items[0].Quantity, after.Items[0].Quantity)
}

func TestDeleteOrder(t *testing.T) {
	router := newTestRouter(t)
	created := decodeOrder(t, doJSON(t, router, http.MethodPost, "/admin/v1/orders",
		`{"user_id":1,"items":[{"product_id":1,"quantity":2,"unit_price":"2"}]}`))

	rec := doJSON(t, router, http.MethodDelete, "/admin/v1/orders/"+jsonInt(created.ID), "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/admin/v1/orders/"+jsonInt(created.ID), "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/admin/v1/orders/"+jsonInt(created.ID), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders_FiltersAndPaginates(t *testing.T) {
	router := newTestRouter(t)
	for _, status := range []string{"pending", "paid", "paid"} {
		rec := doJSON(t, router, http.MethodPost, "/admin/v1/orders",
			`{"user_id":1,"status":"`+status+`","items":[{"product_id":1,"quantity":1,"unit_price":"3"}]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/admin/v1/orders?status=paid&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page orderhttpmapper.OrderPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.LastPage)
	require.Len(t, page.Data, 1)
	assert.True(t, decimal.RequireFromString("3").Equal(page.Data[0].Subtotal))
	assert.Empty(t, page.Data[0].Items)

	rec = doJSON(t, router, http.MethodGet, "/admin/v1/orders?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/admin/v1/orders?page=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderRoutes_RejectBadIDs(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/admin/v1/orders/abc", "/admin/v1/orders/0", "/admin/v1/orders/-3"} {
		rec := doJSON(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestRequestID_PropagatesHeader(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/admin/v1/orders/42", "", HeaderRequestID, "req-1")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-1", decodeProblem(t, rec).Extensions["requestId"])
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ok"))
}

func TestRespondServiceError_IdempotencyInProgressIsConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/v1/orders", nil)

	respondServiceError(c, ordersports.ErrIdempotencyInProgress)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeProblem(t, rec).Detail, "still in progress")
}

func TestRespondServiceError_HidesUnknownCauses(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	respondServiceError(c, &ordersapp.WorkflowError{Kind: ordersapp.ErrUpdateFailed, Cause: assert.AnError})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, ordersapp.ErrUpdateFailed.Error(), problem.Detail)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	respondServiceError(c, assert.AnError)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
