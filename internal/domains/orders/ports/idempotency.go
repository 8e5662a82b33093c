package ports

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload or target.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyInProgress is returned while another request holding the same key has not finished.
	ErrIdempotencyInProgress = fmt.Errorf("%w: a request with this key is still in progress", ErrIdempotencyConflict)
)

// IdempotencyRecord captures the association between a client-supplied key and the created order.
// A zero OrderID marks a claimed key whose order is not committed yet.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pending reports whether the key is claimed but not bound to an order.
func (r IdempotencyRecord) Pending() bool { return r.OrderID == 0 }

// IdempotencyStore persists idempotency keys so retries can be replayed safely.
// A create first claims the key, then binds it to the committed order, or
// releases it when the create fails.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Claim reserves record.Key for record.RequestHash. claimed is true when the caller now owns the key.
	// Otherwise the stored record is returned, with ErrIdempotencyConflict when its hash differs.
	Claim(ctx context.Context, record IdempotencyRecord) (stored *IdempotencyRecord, claimed bool, err error)
	// Complete binds a claimed key to the committed order.
	Complete(ctx context.Context, key string, orderID int64) error
	// Release drops a claim whose order was never committed.
	Release(ctx context.Context, key string) error
}

// TxIdempotencyStore is implemented by stores that can bind the key inside the
// order transaction, so the key and the order commit together.
type TxIdempotencyStore interface {
	IdempotencyStore
	CompleteTx(ctx context.Context, tx Tx, key string, orderID int64) error
}
