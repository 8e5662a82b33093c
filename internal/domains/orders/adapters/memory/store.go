package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var (
	_ ports.Transactor = (*Store)(nil)
	_ ports.Tx         = (*Tx)(nil)

	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("memory transaction already committed or rolled back")
	// ErrTxConflict is returned by Commit when a staged write targets a row
	// another transaction removed after this one read it.
	ErrTxConflict = errors.New("memory transaction conflicts with a concurrent commit")
)

// Store keeps committed orders and items in memory. Transactions stage their
// writes privately and publish them on commit, so a rolled back transaction
// leaves no trace and concurrent transactions never wait on each other beyond
// the commit merge.
type Store struct {
	mu       sync.RWMutex
	orders   map[int64]*domain.Order
	items    map[int64]domain.OrderItem
	orderSeq atomic.Int64
	itemSeq  atomic.Int64
	now      func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		orders: map[int64]*domain.Order{},
		items:  map[int64]domain.OrderItem{},
		now:    time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Orders returns the order store view.
func (s *Store) Orders() *Orders { return &Orders{store: s} }

// Items returns the item store view.
func (s *Store) Items() *Items { return &Items{store: s} }

// Begin opens a transaction.
func (s *Store) Begin(_ context.Context) (ports.Tx, error) {
	return s.begin(), nil
}

func (s *Store) begin() *Tx {
	return &Tx{
		store:         s,
		orders:        map[int64]*domain.Order{},
		items:         map[int64]*domain.OrderItem{},
		deletedOrders: map[int64]struct{}{},
		insertedOrder: map[int64]struct{}{},
		insertedItems: map[int64]struct{}{},
	}
}

// Tx is a unit of work over a Store. A nil staged entry marks a deletion.
type Tx struct {
	store *Store

	mu            sync.Mutex
	orders        map[int64]*domain.Order
	items         map[int64]*domain.OrderItem
	deletedOrders map[int64]struct{}
	insertedOrder map[int64]struct{}
	insertedItems map[int64]struct{}
	done          bool
}

// Commit publishes the staged writes. A write whose order or item was removed
// by a transaction that committed first fails the whole commit with ErrTxConflict
// and nothing is published.
func (t *Tx) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := t.checkConflicts(); err != nil {
		t.orders = nil
		t.items = nil
		return err
	}
	for id, order := range t.orders {
		if order == nil {
			delete(s.orders, id)
			continue
		}
		s.orders[id] = order
	}
	for id, item := range t.items {
		if item == nil {
			delete(s.items, id)
			continue
		}
		s.items[id] = *item
	}
	// Cascade also covers items committed by other transactions since this one read them.
	if len(t.deletedOrders) > 0 {
		for id, item := range s.items {
			if _, gone := t.deletedOrders[item.OrderID]; gone {
				delete(s.items, id)
			}
		}
	}
	return nil
}

// checkConflicts verifies every staged write still has a live target. Callers hold t.mu and s.mu.
func (t *Tx) checkConflicts() error {
	s := t.store
	orderLive := func(id int64) bool {
		if staged, ok := t.orders[id]; ok && staged == nil {
			return false
		}
		if _, ok := t.insertedOrder[id]; ok {
			return true
		}
		_, ok := s.orders[id]
		return ok
	}
	for id, order := range t.orders {
		if order != nil && !orderLive(id) {
			return fmt.Errorf("%w: order %d was deleted", ErrTxConflict, id)
		}
	}
	for id, item := range t.items {
		if item == nil {
			continue
		}
		if !orderLive(item.OrderID) {
			return fmt.Errorf("%w: order %d of item %d was deleted", ErrTxConflict, item.OrderID, id)
		}
		if _, inserted := t.insertedItems[id]; inserted {
			continue
		}
		if _, ok := s.items[id]; !ok {
			return fmt.Errorf("%w: item %d was deleted", ErrTxConflict, id)
		}
	}
	return nil
}

// Rollback discards the staged writes.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.orders = nil
	t.items = nil
	return nil
}

// run executes fn inside tx, or inside a short-lived transaction committed
// right away when tx is nil.
func (s *Store) run(ctx context.Context, tx ports.Tx, fn func(t *Tx) error) error {
	if tx == nil {
		t := s.begin()
		if err := t.exec(fn); err != nil {
			_ = t.Rollback(ctx)
			return err
		}
		return t.Commit(ctx)
	}
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return fmt.Errorf("memory store: foreign transaction %T", tx)
	}
	return t.exec(fn)
}

func (t *Tx) exec(fn func(t *Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	return fn(t)
}

// order resolves an order through the staged writes, then the committed state.
// Callers hold t.mu.
func (t *Tx) order(id int64) (*domain.Order, bool) {
	if staged, ok := t.orders[id]; ok {
		if staged == nil {
			return nil, false
		}
		return staged.Clone(), true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	committed, ok := t.store.orders[id]
	if !ok {
		return nil, false
	}
	return committed.Clone(), true
}

// orderItems returns the items of an order visible to the transaction, sorted by id.
func (t *Tx) orderItems(orderID int64) []domain.OrderItem {
	visible := map[int64]domain.OrderItem{}
	if _, gone := t.deletedOrders[orderID]; !gone {
		t.store.mu.RLock()
		for id, item := range t.store.items {
			if item.OrderID == orderID {
				visible[id] = item
			}
		}
		t.store.mu.RUnlock()
	}
	for id, item := range t.items {
		if item == nil {
			delete(visible, id)
			continue
		}
		if item.OrderID == orderID {
			visible[id] = *item
		}
	}
	result := make([]domain.OrderItem, 0, len(visible))
	for _, item := range visible {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Reset drops all data; handy for contract test state handlers.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = map[int64]*domain.Order{}
	s.items = map[int64]domain.OrderItem{}
}
