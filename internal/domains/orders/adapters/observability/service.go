package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/observability/service"

// Service decorates an orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// CreateOrder inserts an order with its items.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateOrder",
		attribute.Int64("order.user_id", input.UserID),
		attribute.Int("order.items.requested", len(input.Items)),
		attribute.Bool("order.idempotent", input.IdempotencyKey != ""),
	)
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int64("user.id", input.UserID), slog.Int("items", len(input.Items)))
	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.Int64("user.id", input.UserID))
	}
	if result != nil && result.Order != nil {
		span.SetAttributes(attribute.Int64("order.id", result.Order.ID))
		s.metrics.recordCreated(ctx, result.Order.Status)
		s.logInfo(ctx, "order created",
			slog.Int64("order.id", result.Order.ID),
			slog.String("status", string(result.Order.Status)),
			slog.String("subtotal", result.Summary.Subtotal.StringFixed(2)),
			slog.Int64("item_count", result.Summary.ItemCount),
		)
	}
	return result, nil
}

// UpdateOrder merges scalar fields and reconciles items.
func (s *Service) UpdateOrder(ctx context.Context, input ordertypes.UpdateOrderInput) (*ordertypes.OrderProjection, error) {
	reconciling := input.Items != nil
	desired := 0
	if reconciling {
		desired = len(*input.Items)
	}
	ctx, span := s.startSpan(ctx, "Service.UpdateOrder",
		attribute.Int64("order.id", input.ID),
		attribute.Bool("order.items.reconcile", reconciling),
		attribute.Int("order.items.desired", desired),
	)
	defer span.End()

	s.logInfo(ctx, "updating order", slog.Int64("order.id", input.ID), slog.Bool("reconcile", reconciling))
	result, err := s.inner.UpdateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order", slog.Int64("order.id", input.ID))
	}
	if result != nil && result.Order != nil {
		s.metrics.recordUpdated(ctx, result.Order.Status)
		if reconciling {
			s.metrics.recordReconciled(ctx, int64(desired))
		}
		s.logInfo(ctx, "order updated",
			slog.Int64("order.id", result.Order.ID),
			slog.String("status", string(result.Order.Status)),
			slog.Int64("item_count", result.Summary.ItemCount),
		)
	}
	return result, nil
}

// DeleteOrder removes an order and its items.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteOrder", attribute.Int64("order.id", id))
	defer span.End()

	s.logInfo(ctx, "deleting order", slog.Int64("order.id", id))
	if err := s.inner.DeleteOrder(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.Int64("order.id", id))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "order deleted", slog.Int64("order.id", id))
	return nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.Int64("order.id", id))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) (*ordertypes.OrderPage, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders",
		attribute.String("order.filter.status", input.Status),
		attribute.String("order.filter.id", input.IDQuery),
		attribute.Int("page", input.Page),
	)
	defer span.End()

	result, err := s.inner.ListOrders(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(
		attribute.Int("order.result.count", len(result.Orders)),
		attribute.Int64("order.result.total", result.Total),
	)
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	var wfErr *application.WorkflowError
	if errors.As(err, &wfErr) && wfErr.Cause != nil {
		attrs = append(attrs, slog.String("cause", wfErr.Cause.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		recorded := err
		var wfErr *application.WorkflowError
		if errors.As(err, &wfErr) && wfErr.Cause != nil {
			recorded = wfErr.Cause
		}
		span.RecordError(recorded)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersCreated   metric.Int64Counter
	ordersUpdated   metric.Int64Counter
	ordersDeleted   metric.Int64Counter
	itemsReconciled metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	ordersUpdated, _ := m.Int64Counter("orders.service.updated", metric.WithDescription("Number of orders updated"))
	ordersDeleted, _ := m.Int64Counter("orders.service.deleted", metric.WithDescription("Number of orders deleted"))
	itemsReconciled, _ := m.Int64Counter("orders.service.items_reconciled", metric.WithDescription("Number of desired item lines applied by reconciliation"))
	return serviceMetrics{
		ordersCreated:   ordersCreated,
		ordersUpdated:   ordersUpdated,
		ordersDeleted:   ordersDeleted,
		itemsReconciled: itemsReconciled,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.ordersCreated, 1, attribute.String("order.status", string(status)))
}

func (m serviceMetrics) recordUpdated(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.ordersUpdated, 1, attribute.String("order.status", string(status)))
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	addCounter(ctx, m.ordersDeleted, 1)
}

func (m serviceMetrics) recordReconciled(ctx context.Context, lines int64) {
	addCounter(ctx, m.itemsReconciled, lines)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
