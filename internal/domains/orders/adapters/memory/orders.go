package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var _ ports.OrderStore = (*Orders)(nil)

// Orders is the in-memory order persistence adapter.
type Orders struct {
	store *Store
}

func (r *Orders) Insert(ctx context.Context, tx ports.Tx, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	clone.Items = nil
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	err := r.store.run(ctx, tx, func(t *Tx) error {
		if clone.ID == 0 {
			clone.ID = r.store.orderSeq.Add(1)
		} else {
			if _, exists := t.order(clone.ID); exists {
				return errors.New("order id already exists")
			}
			bumpSeq(&r.store.orderSeq, clone.ID)
		}
		now := r.store.now().UTC()
		if clone.CreatedAt.IsZero() {
			clone.CreatedAt = now
		}
		clone.UpdatedAt = now
		t.orders[clone.ID] = clone.Clone()
		t.insertedOrder[clone.ID] = struct{}{}
		delete(t.deletedOrders, clone.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

func (r *Orders) FindByID(ctx context.Context, tx ports.Tx, id int64) (*domain.Order, error) {
	var found *domain.Order
	err := r.store.run(ctx, tx, func(t *Tx) error {
		order, ok := t.order(id)
		if !ok {
			return ports.ErrNotFound
		}
		found = order
		return nil
	})
	return found, err
}

func (r *Orders) Update(ctx context.Context, tx ports.Tx, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	clone.Items = nil
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	err := r.store.run(ctx, tx, func(t *Tx) error {
		existing, ok := t.order(clone.ID)
		if !ok {
			return ports.ErrNotFound
		}
		clone.CreatedAt = existing.CreatedAt
		clone.UpdatedAt = r.store.now().UTC()
		t.orders[clone.ID] = clone.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

func (r *Orders) Delete(ctx context.Context, tx ports.Tx, id int64) error {
	return r.store.run(ctx, tx, func(t *Tx) error {
		if _, ok := t.order(id); !ok {
			return ports.ErrNotFound
		}
		for _, item := range t.orderItems(id) {
			t.items[item.ID] = nil
		}
		t.orders[id] = nil
		t.deletedOrders[id] = struct{}{}
		return nil
	})
}

// List reads committed orders only.
func (r *Orders) List(_ context.Context, filter ports.ListFilter) ([]*domain.Order, int64, error) {
	r.store.mu.RLock()
	matched := make([]*domain.Order, 0, len(r.store.orders))
	for _, order := range r.store.orders {
		if matchesFilter(order, filter) {
			matched = append(matched, order.Clone())
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func matchesFilter(order *domain.Order, filter ports.ListFilter) bool {
	if filter.Status == "" && filter.IDQuery == "" {
		return true
	}
	if filter.Status != "" && order.Status == filter.Status {
		return true
	}
	return filter.IDQuery != "" && strings.Contains(strconv.FormatInt(order.ID, 10), filter.IDQuery)
}

func bumpSeq(seq *atomic.Int64, id int64) {
	for {
		current := seq.Load()
		if id <= current || seq.CompareAndSwap(current, id) {
			return
		}
	}
}
