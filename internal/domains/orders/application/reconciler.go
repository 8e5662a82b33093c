package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

// Reconciler makes the persisted item set of an order equal a desired list.
// It only ever works inside a caller-owned transaction and never commits or rolls back.
type Reconciler struct {
	items             ports.ItemStore
	updateConcurrency int
}

// NewReconciler wires the item store. concurrency > 1 issues item updates in parallel.
func NewReconciler(items ports.ItemStore, concurrency int) *Reconciler {
	return &Reconciler{items: items, updateConcurrency: concurrency}
}

// ReplaceAll swaps every item of a fresh order for the desired lines.
// An empty desired list performs no writes and reports false.
func (r *Reconciler) ReplaceAll(ctx context.Context, tx ports.Tx, orderID int64, desired []ordertypes.ItemInput) (bool, error) {
	if len(desired) == 0 {
		return false, nil
	}
	lines := make([]domain.OrderItem, 0, len(desired))
	for _, in := range desired {
		item, err := domain.NewOrderItem(0, in.ProductID, in.Quantity, in.UnitPrice)
		if err != nil {
			return false, mapError(err)
		}
		item.OrderID = orderID
		lines = append(lines, *item)
	}
	if err := r.items.DeleteByOrder(ctx, tx, orderID); err != nil {
		return false, fmt.Errorf("clear items of order %d: %w", orderID, err)
	}
	if _, err := r.items.InsertMany(ctx, tx, orderID, lines); err != nil {
		return false, fmt.Errorf("insert items of order %d: %w", orderID, err)
	}
	return true, nil
}

// Reconcile diffs desired against the persisted items: lines whose id is absent
// from desired are deleted in one statement, lines carrying an id are updated in
// place, and lines without an id are inserted.
func (r *Reconciler) Reconcile(ctx context.Context, tx ports.Tx, orderID int64, desired []ordertypes.ItemInput) error {
	keepIDs := make([]int64, 0, len(desired))
	wanted := make(map[int64]ordertypes.ItemInput, len(desired))
	fresh := make([]domain.OrderItem, 0)
	for _, in := range desired {
		if in.ID == nil {
			item, err := domain.NewOrderItem(0, in.ProductID, in.Quantity, in.UnitPrice)
			if err != nil {
				return mapError(err)
			}
			item.OrderID = orderID
			fresh = append(fresh, *item)
			continue
		}
		id := *in.ID
		if _, dup := wanted[id]; dup {
			return fmt.Errorf("%w: item %d listed more than once", ErrInvalidInput, id)
		}
		if _, err := domain.NewOrderItem(id, in.ProductID, in.Quantity, in.UnitPrice); err != nil {
			return mapError(err)
		}
		wanted[id] = in
		keepIDs = append(keepIDs, id)
	}

	if err := r.items.DeleteExcept(ctx, tx, orderID, keepIDs); err != nil {
		return fmt.Errorf("delete dropped items of order %d: %w", orderID, err)
	}
	if len(keepIDs) > 0 {
		current, err := r.items.FindByIDs(ctx, tx, orderID, keepIDs)
		if err != nil {
			return fmt.Errorf("load kept items of order %d: %w", orderID, err)
		}
		if len(current) != len(keepIDs) {
			return fmt.Errorf("%w: order %d holds %d of %d requested items", ports.ErrItemNotFound, orderID, len(current), len(keepIDs))
		}
		for i := range current {
			in := wanted[current[i].ID]
			if err := current[i].Apply(in.ProductID, in.Quantity, in.UnitPrice); err != nil {
				return mapError(err)
			}
		}
		if err := r.updateAll(ctx, tx, current); err != nil {
			return err
		}
	}
	if len(fresh) > 0 {
		if _, err := r.items.InsertMany(ctx, tx, orderID, fresh); err != nil {
			return fmt.Errorf("insert new items of order %d: %w", orderID, err)
		}
	}
	return nil
}

func (r *Reconciler) updateAll(ctx context.Context, tx ports.Tx, items []domain.OrderItem) error {
	if r.updateConcurrency <= 1 || len(items) < 2 {
		for _, item := range items {
			if err := r.items.Update(ctx, tx, item); err != nil {
				return fmt.Errorf("update item %d: %w", item.ID, err)
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.updateConcurrency)
	for _, item := range items {
		g.Go(func() error {
			if err := r.items.Update(gctx, tx, item); err != nil {
				return fmt.Errorf("update item %d: %w", item.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
