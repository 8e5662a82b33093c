package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

const (
	defaultPageLimit = 15
	maxPageLimit     = 100

	defaultClaimInterval = 50 * time.Millisecond
	defaultClaimAttempts = 40
)

// Service orchestrates the orders bounded context use cases. Each mutation runs
// in exactly one transaction that is committed on success and rolled back otherwise.
type Service struct {
	tx          ports.Transactor
	orders      ports.OrderStore
	items       ports.ItemStore
	reconciler  *Reconciler
	aggregator  Aggregator
	idempotency ports.IdempotencyStore
	events      ports.EventPublisher
	logger      *slog.Logger
	now         func() time.Time

	updateConcurrency int
	pageLimit         int
	claimInterval     time.Duration
	claimAttempts     int
}

// Option customises the service.
type Option func(*Service)

// WithIdempotencyStore enables replay of create requests carrying an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithEventPublisher ships events after each committed mutation.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

// WithLogger injects the logger used for failures that do not reach the caller.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithUpdateConcurrency bounds the number of item updates issued in parallel during reconcile.
func WithUpdateConcurrency(n int) Option {
	return func(s *Service) {
		s.updateConcurrency = n
	}
}

// WithDefaultPageLimit sets the page size used when a listing does not ask for one.
func WithDefaultPageLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.pageLimit = limit
		}
	}
}

// WithIdempotencyWait sets how often and how many times a create polls a key
// held by a concurrent request before giving up with ErrIdempotencyInProgress.
func WithIdempotencyWait(interval time.Duration, attempts int) Option {
	return func(s *Service) {
		if interval > 0 {
			s.claimInterval = interval
		}
		if attempts >= 0 {
			s.claimAttempts = attempts
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orders service with its stores.
func NewService(tx ports.Transactor, orders ports.OrderStore, items ports.ItemStore, opts ...Option) *Service {
	s := &Service{
		tx:        tx,
		orders:    orders,
		items:     items,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		pageLimit: defaultPageLimit,

		claimInterval: defaultClaimInterval,
		claimAttempts: defaultClaimAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.reconciler = NewReconciler(items, s.updateConcurrency)
	s.aggregator = NewAggregator(items)
	return s
}

// CreateOrder inserts the order and its lines atomically. With an idempotency
// key the key is claimed before anything is written, so only one request per
// key ever creates an order.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderProjection, error) {
	order, err := domain.NewOrder(0, input.UserID, domain.Status(strings.TrimSpace(input.Status)))
	if err != nil {
		return nil, mapError(err)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	claimed := false
	if key != "" && s.idempotency != nil {
		fingerprint, err := FingerprintCreateOrder(input)
		if err != nil {
			return nil, err
		}
		replayed, err := s.claim(ctx, key, fingerprint)
		if err != nil || replayed != nil {
			return replayed, err
		}
		claimed = true
	}
	txKeys, bindInTx := s.idempotency.(ports.TxIdempotencyStore)
	bindInTx = bindInTx && claimed

	var created *domain.Order
	err = s.inTransaction(ctx, ErrCreateFailed, func(tx ports.Tx) error {
		saved, err := s.orders.Insert(ctx, tx, order)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if _, err := s.reconciler.ReplaceAll(ctx, tx, saved.ID, input.Items); err != nil {
			return err
		}
		if bindInTx {
			if err := txKeys.CompleteTx(ctx, tx, key, saved.ID); err != nil {
				return fmt.Errorf("bind idempotency key: %w", err)
			}
		}
		created = saved
		return nil
	})
	if err != nil {
		if claimed {
			s.release(ctx, key)
		}
		return nil, err
	}
	if claimed && !bindInTx {
		if err := s.idempotency.Complete(ctx, key, created.ID); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to bind idempotency key",
				slog.Int64("order.id", created.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	result, err := s.GetOrder(ctx, created.ID)
	if err != nil {
		return nil, &CommittedError{OrderID: created.ID, Cause: err}
	}
	s.publish(ctx, domain.OrderCreated{
		BaseEvent: domain.BaseEvent{Timestamp: s.now()},
		OrderID:   result.Order.ID,
		UserID:    result.Order.UserID,
		Status:    result.Order.Status,
		Summary:   result.Summary,
		ItemCount: len(result.Order.Items),
	})
	return result, nil
}

// UpdateOrder merges scalar fields and reconciles items atomically.
func (s *Service) UpdateOrder(ctx context.Context, input ordertypes.UpdateOrderInput) (*ordertypes.OrderProjection, error) {
	var previous domain.Status
	err := s.inTransaction(ctx, ErrUpdateFailed, func(tx ports.Tx) error {
		order, err := s.orders.FindByID(ctx, tx, input.ID)
		if err != nil {
			return err
		}
		previous = order.Status
		if input.UserID != nil {
			if err := order.AssignUser(*input.UserID); err != nil {
				return mapError(err)
			}
		}
		if input.Status != nil {
			if err := order.UpdateStatus(domain.Status(strings.TrimSpace(*input.Status))); err != nil {
				return mapError(err)
			}
		}
		if input.Items != nil {
			if err := s.reconciler.Reconcile(ctx, tx, order.ID, *input.Items); err != nil {
				return err
			}
		}
		order.UpdatedAt = s.now().UTC()
		if _, err := s.orders.Update(ctx, tx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.GetOrder(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.OrderUpdated{
		BaseEvent:      domain.BaseEvent{Timestamp: s.now()},
		OrderID:        result.Order.ID,
		UserID:         result.Order.UserID,
		Status:         result.Order.Status,
		PreviousStatus: previous,
		Summary:        result.Summary,
	})
	return result, nil
}

// DeleteOrder removes all items and then the order atomically.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	err := s.inTransaction(ctx, ErrDeleteFailed, func(tx ports.Tx) error {
		if _, err := s.orders.FindByID(ctx, tx, id); err != nil {
			return err
		}
		if err := s.items.DeleteByOrder(ctx, tx, id); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		return s.orders.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, domain.OrderDeleted{BaseEvent: domain.BaseEvent{Timestamp: s.now()}, OrderID: id})
	return nil
}

// GetOrder loads an order with its items and summary.
func (s *Service) GetOrder(ctx context.Context, id int64) (*ordertypes.OrderProjection, error) {
	order, err := s.orders.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByOrder(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return s.aggregator.Project(order), nil
}

// ListOrders pages through orders matching the filter, each carrying its summary.
func (s *Service) ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) (*ordertypes.OrderPage, error) {
	filter := ports.ListFilter{IDQuery: strings.TrimSpace(input.IDQuery)}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return nil, mapError(domain.ErrInvalidStatus)
		}
		filter.Status = status
	}
	page, limit := s.normalizePage(input.Page, input.Limit)
	filter.Offset = (page - 1) * limit
	filter.Limit = limit

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	projections, err := s.aggregator.ProjectAll(ctx, orders)
	if err != nil {
		return nil, err
	}
	return &ordertypes.OrderPage{
		Orders:   projections,
		Total:    total,
		Page:     page,
		Limit:    limit,
		LastPage: lastPage(total, limit),
	}, nil
}

// claim reserves the key for this request. A key already bound to an order
// replays that order; a key still held by another request is polled until it
// is bound or released.
func (s *Service) claim(ctx context.Context, key, fingerprint string) (*ordertypes.OrderProjection, error) {
	for attempt := 0; ; attempt++ {
		record, claimed, err := s.idempotency.Claim(ctx, ports.IdempotencyRecord{Key: key, RequestHash: fingerprint})
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, nil
		}
		if !record.Pending() {
			return s.GetOrder(ctx, record.OrderID)
		}
		if attempt >= s.claimAttempts {
			return nil, ports.ErrIdempotencyInProgress
		}
		timer := time.NewTimer(s.claimInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to release idempotency key",
			slog.String("error", err.Error()),
		)
	}
}

// inTransaction runs fn in a fresh transaction. Any error, including a failed
// commit, rolls back and is reported through workflowFailure.
func (s *Service) inTransaction(ctx context.Context, kind error, fn func(tx ports.Tx) error) error {
	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return workflowFailure(kind, fmt.Errorf("begin transaction: %w", err))
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return workflowFailure(kind, err)
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return workflowFailure(kind, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish order event",
			slog.String("event", event.EventName()),
			slog.Int64("order.id", event.AggregateID()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.pageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func lastPage(total int64, limit int) int {
	if total == 0 || limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

var _ ports.Service = (*Service)(nil)
