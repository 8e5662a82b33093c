package adminserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	ordersports "github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-admin-api/internal/shared/errors"
)

// HeaderIdempotencyKey lets clients retry order creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders service and workflows.
type OrderAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. workflows may be nil.
func NewOrderAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /admin/v1/orders
// Create an order together with its line items
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	input, err := orderhttpmapper.ToCreateInput(payload, strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)))
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	created, err := api.createOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromProjection(created))
}

func (api *OrderAPI) createOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderProjection, error) {
	if api.workflows != nil {
		return api.workflows.CreateOrder(ctx, input)
	}
	return api.service.CreateOrder(ctx, input)
}

// Get /admin/v1/orders/:orderId
// Find an order with its items and totals
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

// Get /admin/v1/orders
// List orders, optionally filtered by status or id fragment
func (api *OrderAPI) ListOrders(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	result, err := api.service.ListOrders(c.Request.Context(), ordertypes.ListOrdersInput{
		Status:  c.Query("status"),
		IDQuery: c.Query("id"),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromPage(result))
}

// Put /admin/v1/orders/:orderId
// Update an order; a supplied items array replaces the full item set
func (api *OrderAPI) UpdateOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.UpdateOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	input, err := orderhttpmapper.ToUpdateInput(id, payload)
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	updated, err := api.service.UpdateOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(updated))
}

// Delete /admin/v1/orders/:orderId
// Delete an order and all of its items
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	noContent(c)
}
