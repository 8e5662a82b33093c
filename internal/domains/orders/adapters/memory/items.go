package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var _ ports.ItemStore = (*Items)(nil)

// Items is the in-memory line item persistence adapter.
type Items struct {
	store *Store
}

func (r *Items) InsertMany(ctx context.Context, tx ports.Tx, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error) {
	saved := make([]domain.OrderItem, 0, len(items))
	err := r.store.run(ctx, tx, func(t *Tx) error {
		if _, ok := t.order(orderID); !ok {
			return fmt.Errorf("insert items: order %d does not exist", orderID)
		}
		for _, item := range items {
			if err := item.Validate(); err != nil {
				return err
			}
			if item.ID == 0 {
				item.ID = r.store.itemSeq.Add(1)
			} else {
				// explicit ids are only used to seed fixtures
				if err := t.ensureItemFree(item.ID); err != nil {
					return err
				}
				bumpSeq(&r.store.itemSeq, item.ID)
			}
			item.OrderID = orderID
			staged := item
			t.items[item.ID] = &staged
			t.insertedItems[item.ID] = struct{}{}
			saved = append(saved, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *Items) ListByOrder(ctx context.Context, tx ports.Tx, orderID int64) ([]domain.OrderItem, error) {
	var result []domain.OrderItem
	err := r.store.run(ctx, tx, func(t *Tx) error {
		result = t.orderItems(orderID)
		return nil
	})
	return result, err
}

func (r *Items) FindByIDs(ctx context.Context, tx ports.Tx, orderID int64, ids []int64) ([]domain.OrderItem, error) {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var result []domain.OrderItem
	err := r.store.run(ctx, tx, func(t *Tx) error {
		for _, item := range t.orderItems(orderID) {
			if _, ok := wanted[item.ID]; ok {
				result = append(result, item)
			}
		}
		return nil
	})
	return result, err
}

func (r *Items) Update(ctx context.Context, tx ports.Tx, item domain.OrderItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return r.store.run(ctx, tx, func(t *Tx) error {
		for _, existing := range t.orderItems(item.OrderID) {
			if existing.ID == item.ID {
				staged := item
				t.items[item.ID] = &staged
				return nil
			}
		}
		return fmt.Errorf("%w: item %d of order %d", ports.ErrItemNotFound, item.ID, item.OrderID)
	})
}

func (r *Items) DeleteByOrder(ctx context.Context, tx ports.Tx, orderID int64) error {
	return r.DeleteExcept(ctx, tx, orderID, nil)
}

func (r *Items) DeleteExcept(ctx context.Context, tx ports.Tx, orderID int64, keepIDs []int64) error {
	keep := make(map[int64]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = struct{}{}
	}
	return r.store.run(ctx, tx, func(t *Tx) error {
		for _, item := range t.orderItems(orderID) {
			if _, ok := keep[item.ID]; !ok {
				t.items[item.ID] = nil
			}
		}
		return nil
	})
}

// Summaries reads committed items only.
func (r *Items) Summaries(_ context.Context, orderIDs []int64) (map[int64]domain.Summary, error) {
	wanted := make(map[int64]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = struct{}{}
	}
	result := make(map[int64]domain.Summary, len(orderIDs))
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, item := range r.store.items {
		if _, ok := wanted[item.OrderID]; !ok {
			continue
		}
		summary, ok := result[item.OrderID]
		if !ok {
			summary.Subtotal = decimal.Zero
		}
		summary.Subtotal = summary.Subtotal.Add(item.Subtotal)
		summary.ItemCount += int64(item.Quantity)
		result[item.OrderID] = summary
	}
	return result, nil
}

// ensureItemFree rejects an explicit id already visible to the transaction. Callers hold t.mu.
func (t *Tx) ensureItemFree(id int64) error {
	if staged, ok := t.items[id]; ok {
		if staged != nil {
			return fmt.Errorf("item id %d already exists", id)
		}
		return nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if _, ok := t.store.items[id]; ok {
		return fmt.Errorf("item id %d already exists", id)
	}
	return nil
}
