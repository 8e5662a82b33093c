package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

func newLine(t *testing.T, productID int64, qty int32, price int64) domain.OrderItem {
	t.Helper()
	item, err := domain.NewOrderItem(0, productID, qty, decimal.NewFromInt(price))
	require.NoError(t, err)
	return *item
}

func seedOrder(t *testing.T, store *Store, lines ...domain.OrderItem) *domain.Order {
	t.Helper()
	ctx := context.Background()
	order, err := domain.NewOrder(0, 1, domain.StatusPending)
	require.NoError(t, err)
	saved, err := store.Orders().Insert(ctx, nil, order)
	require.NoError(t, err)
	if len(lines) > 0 {
		_, err = store.Items().InsertMany(ctx, nil, saved.ID, lines)
		require.NoError(t, err)
	}
	return saved
}

func TestTx_UncommittedWritesStayPrivate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	order, err := domain.NewOrder(0, 3, domain.StatusPaid)
	require.NoError(t, err)
	saved, err := store.Orders().Insert(ctx, tx, order)
	require.NoError(t, err)

	_, err = store.Orders().FindByID(ctx, nil, saved.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)

	inside, err := store.Orders().FindByID(ctx, tx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, inside.Status)

	require.NoError(t, tx.Commit(ctx))
	committed, err := store.Orders().FindByID(ctx, nil, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), committed.UserID)
}

func TestTx_RollbackDiscardsEverything(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	order := seedOrder(t, store, newLine(t, 1, 1, 5))

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Items().DeleteByOrder(ctx, tx, order.ID))
	require.NoError(t, store.Orders().Delete(ctx, tx, order.ID))
	require.NoError(t, tx.Rollback(ctx))

	_, err = store.Orders().FindByID(ctx, nil, order.ID)
	require.NoError(t, err)
	items, err := store.Items().ListByOrder(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.ErrorIs(t, tx.Commit(ctx), ErrTxDone)
}

func TestOrdersDelete_CascadesItems(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	order := seedOrder(t, store, newLine(t, 1, 1, 5), newLine(t, 2, 2, 5))

	require.NoError(t, store.Orders().Delete(ctx, nil, order.ID))
	items, err := store.Items().ListByOrder(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.ErrorIs(t, store.Orders().Delete(ctx, nil, order.ID), ports.ErrNotFound)
}

func TestItemsInsertMany_RequiresExistingOrder(t *testing.T) {
	store := NewStore()
	_, err := store.Items().InsertMany(context.Background(), nil, 42, []domain.OrderItem{newLine(t, 1, 1, 1)})
	require.Error(t, err)
}

func TestItemsDeleteExcept_KeepsListedIDs(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	order := seedOrder(t, store, newLine(t, 1, 1, 5), newLine(t, 2, 1, 5), newLine(t, 3, 1, 5))
	items, err := store.Items().ListByOrder(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.NoError(t, store.Items().DeleteExcept(ctx, nil, order.ID, []int64{items[1].ID}))
	remaining, err := store.Items().ListByOrder(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, items[1].ID, remaining[0].ID)
}

func TestItemsSummaries_GroupsByOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	first := seedOrder(t, store, newLine(t, 1, 2, 10), newLine(t, 2, 1, 5))
	second := seedOrder(t, store)

	summaries, err := store.Items().Summaries(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(summaries[first.ID].Subtotal))
	assert.Equal(t, int64(3), summaries[first.ID].ItemCount)
	_, ok := summaries[second.ID]
	assert.False(t, ok)
}

func TestOrdersList_FiltersAndPages(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for i := 0; i < 12; i++ {
		seedOrder(t, store)
	}
	paid, err := domain.NewOrder(0, 1, domain.StatusPaid)
	require.NoError(t, err)
	paid, err = store.Orders().Insert(ctx, nil, paid)
	require.NoError(t, err)

	page, total, err := store.Orders().List(ctx, ports.ListFilter{Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)
	assert.Len(t, page, 3)
	assert.Equal(t, int64(11), page[0].ID)

	byStatus, total, err := store.Orders().List(ctx, ports.ListFilter{Status: domain.StatusPaid, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, paid.ID, byStatus[0].ID)

	// 1, 10, 11, 12 and 13 contain "1"; paid (13) is matched either way.
	either, total, err := store.Orders().List(ctx, ports.ListFilter{Status: domain.StatusPaid, IDQuery: "1", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, either, 5)
}

func TestConcurrentTransactions_DoNotBlock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	first := seedOrder(t, store, newLine(t, 1, 1, 1))
	second := seedOrder(t, store, newLine(t, 2, 1, 1))

	txA, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Items().DeleteByOrder(ctx, txA, first.ID))

	done := make(chan error, 1)
	go func() {
		txB, err := store.Begin(ctx)
		if err != nil {
			done <- err
			return
		}
		if err := store.Items().DeleteByOrder(ctx, txB, second.ID); err != nil {
			done <- err
			return
		}
		done <- txB.Commit(ctx)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("transaction on another order blocked while the first one was open")
	}
	require.NoError(t, txA.Commit(ctx))
}

func TestTx_CommitRejectsWritesToOrderDeletedConcurrently(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	order := seedOrder(t, store, newLine(t, 1, 1, 5))

	txA, err := store.Begin(ctx)
	require.NoError(t, err)
	loaded, err := store.Orders().FindByID(ctx, txA, order.ID)
	require.NoError(t, err)
	_, err = store.Items().InsertMany(ctx, txA, order.ID, []domain.OrderItem{newLine(t, 2, 1, 5)})
	require.NoError(t, err)
	require.NoError(t, loaded.UpdateStatus(domain.StatusPaid))
	_, err = store.Orders().Update(ctx, txA, loaded)
	require.NoError(t, err)

	txB, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Items().DeleteByOrder(ctx, txB, order.ID))
	require.NoError(t, store.Orders().Delete(ctx, txB, order.ID))
	require.NoError(t, txB.Commit(ctx))

	require.ErrorIs(t, txA.Commit(ctx), ErrTxConflict)
	_, err = store.Orders().FindByID(ctx, nil, order.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
	items, err := store.Items().ListByOrder(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTx_CommitRejectsOrphanItems(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	order := seedOrder(t, store)

	txA, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = store.Items().InsertMany(ctx, txA, order.ID, []domain.OrderItem{newLine(t, 1, 3, 2)})
	require.NoError(t, err)

	require.NoError(t, store.Orders().Delete(ctx, nil, order.ID))

	require.ErrorIs(t, txA.Commit(ctx), ErrTxConflict)
	summaries, err := store.Items().Summaries(ctx, []int64{order.ID})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestTx_CommitRejectsUpdateOfItemDeletedConcurrently(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	order := seedOrder(t, store, newLine(t, 1, 1, 5), newLine(t, 2, 1, 5))
	items, err := store.Items().ListByOrder(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	txA, err := store.Begin(ctx)
	require.NoError(t, err)
	changed := items[0]
	require.NoError(t, changed.Apply(changed.ProductID, 4, changed.UnitPrice))
	require.NoError(t, store.Items().Update(ctx, txA, changed))

	require.NoError(t, store.Items().DeleteExcept(ctx, nil, order.ID, []int64{items[1].ID}))

	require.ErrorIs(t, txA.Commit(ctx), ErrTxConflict)
	remaining, err := store.Items().ListByOrder(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, items[1].ID, remaining[0].ID)
}

func TestTx_CommitKeepsOrdersInsertedInSameTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	order, err := domain.NewOrder(0, 2, domain.StatusPending)
	require.NoError(t, err)
	saved, err := store.Orders().Insert(ctx, tx, order)
	require.NoError(t, err)
	_, err = store.Items().InsertMany(ctx, tx, saved.ID, []domain.OrderItem{newLine(t, 1, 1, 1)})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	items, err := store.Items().ListByOrder(ctx, nil, saved.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestIdempotencyStore_ClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.WithClock(func() time.Time { return fixed })

	claimed, ok, err := store.Claim(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h", OrderID: 9})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, claimed.Pending())
	assert.Equal(t, fixed, claimed.CreatedAt)

	pending, ok, err := store.Claim(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, pending.Pending())

	require.NoError(t, store.Complete(ctx, "k", 1))
	again, ok, err := store.Claim(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), again.OrderID)

	existing, _, err := store.Claim(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "other"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.Equal(t, "h", existing.RequestHash)

	require.Error(t, store.Complete(ctx, "unknown", 2))

	removed, err := store.PurgeBefore(ctx, fixed.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	missing, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIdempotencyStore_ReleaseFreesKey(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()

	_, ok, err := store.Claim(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h"})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Release(ctx, "k"))

	_, ok, err = store.Claim(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "different"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestItemsInsertMany_ExplicitIDsAdvanceSequence(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	fixture := newLine(t, 1, 1, 1)
	fixture.ID = 50
	order := seedOrder(t, store, fixture)

	_, err := store.Items().InsertMany(ctx, nil, order.ID, []domain.OrderItem{fixture})
	require.Error(t, err)

	saved, err := store.Items().InsertMany(ctx, nil, order.ID, []domain.OrderItem{newLine(t, 2, 1, 1)})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, int64(51), saved[0].ID)
}
