package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrItemNotFound = errors.New("order item not found")
)

// Tx is an open unit of work. Every store call that receives the same Tx
// observes the writes of the previous calls and commits or rolls back with them.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactor opens transactions for the order stores.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// ListFilter narrows order listings. Status and IDQuery are OR-ed when both are set.
type ListFilter struct {
	Status  domain.Status
	IDQuery string
	Offset  int
	Limit   int
}

// OrderStore persists order rows. A nil Tx reads or writes outside any transaction.
type OrderStore interface {
	Insert(ctx context.Context, tx Tx, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, tx Tx, id int64) (*domain.Order, error)
	Update(ctx context.Context, tx Tx, order *domain.Order) (*domain.Order, error)
	// Delete returns ErrNotFound when no row was removed.
	Delete(ctx context.Context, tx Tx, id int64) error
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, int64, error)
}

// ItemStore persists line items scoped to their owning order.
type ItemStore interface {
	InsertMany(ctx context.Context, tx Tx, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error)
	ListByOrder(ctx context.Context, tx Tx, orderID int64) ([]domain.OrderItem, error)
	FindByIDs(ctx context.Context, tx Tx, orderID int64, ids []int64) ([]domain.OrderItem, error)
	Update(ctx context.Context, tx Tx, item domain.OrderItem) error
	DeleteByOrder(ctx context.Context, tx Tx, orderID int64) error
	// DeleteExcept removes every item of the order whose id is not in keepIDs, as one set-based delete.
	DeleteExcept(ctx context.Context, tx Tx, orderID int64, keepIDs []int64) error
	// Summaries aggregates subtotal and quantity per order in one query.
	Summaries(ctx context.Context, orderIDs []int64) (map[int64]domain.Summary, error)
}
