package adminserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	imagesapp "github.com/Apurer/go-gin-admin-api/internal/domains/images/application"
	imagesports "github.com/Apurer/go-gin-admin-api/internal/domains/images/ports"
	ordersapp "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-admin-api/internal/shared/errors"
)

var problems = apierrors.NewResponder("", orderErrorMapper, imageErrorMapper).
	WithEnrichers(withRequestID)

func withRequestID(c *gin.Context, problem apierrors.ProblemDetail) apierrors.ProblemDetail {
	if id := RequestIDFrom(c); id != "" {
		return problem.WithExtension("requestId", id)
	}
	return problem
}

func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	problems.Respond(c, problem)
}

func respondServiceError(c *gin.Context, err error) {
	problems.RespondError(c, err)
}

func orderErrorMapper(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersports.ErrItemNotFound):
		return apierrors.NewNotFoundProblem("order_item", err.Error()), true
	case errors.Is(err, ordersports.ErrNotFound):
		return apierrors.NewNotFoundProblem("order", err.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ordersports.ErrIdempotencyInProgress):
		return apierrors.ErrConflict.WithDetail("a request with this Idempotency-Key is still in progress"), true
	case errors.Is(err, ordersports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail("Idempotency-Key was already used with a different payload"), true
	case errors.Is(err, ordersapp.ErrCreateFailed),
		errors.Is(err, ordersapp.ErrUpdateFailed),
		errors.Is(err, ordersapp.ErrDeleteFailed):
		// generic message only; the cause stays in logs
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func imageErrorMapper(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, imagesports.ErrNotFound):
		return apierrors.NewNotFoundProblem("image", err.Error()), true
	case errors.Is(err, imagesports.ErrPathTaken):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, imagesapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(name+" must be a non-negative integer"))
		return 0, false
	}
	return value, true
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
