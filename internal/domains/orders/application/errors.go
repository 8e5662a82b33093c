package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")

	ErrCreateFailed = errors.New("order could not be created")
	ErrUpdateFailed = errors.New("order could not be updated")
	ErrDeleteFailed = errors.New("order could not be deleted")
)

// WorkflowError reports a rolled back create, update or delete. Its message and
// error chain expose only Kind; Cause keeps the store failure for logging.
type WorkflowError struct {
	Kind  error
	Cause error
}

func (e *WorkflowError) Error() string { return e.Kind.Error() }

func (e *WorkflowError) Unwrap() error { return e.Kind }

// ErrReloadFailed reports an order that was committed but could not be read back.
var ErrReloadFailed = errors.New("order was created but could not be loaded")

// CommittedError is returned when the create transaction committed and the
// follow-up read failed. Retrying the create would duplicate the order, so
// callers should look it up by OrderID instead.
type CommittedError struct {
	OrderID int64
	Cause   error
}

func (e *CommittedError) Error() string {
	return fmt.Sprintf("%s: order %d", ErrReloadFailed, e.OrderID)
}

func (e *CommittedError) Unwrap() error { return ErrReloadFailed }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidUserID) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidUnitPrice) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

// workflowFailure keeps caller-facing errors (not found, invalid input, idempotency)
// and folds everything else into the generic failure for the operation.
func workflowFailure(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrNotFound) ||
		errors.Is(err, ports.ErrItemNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ports.ErrIdempotencyConflict) {
		return err
	}
	return &WorkflowError{Kind: kind, Cause: err}
}
