package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	imagetypes "github.com/Apurer/go-gin-admin-api/internal/domains/images/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/ports"
)

const tracerName = "github.com/Apurer/go-gin-admin-api/internal/domains/images/adapters/observability/service"

// Service decorates the images service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core images service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
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
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) Register(ctx context.Context, input imagetypes.RegisterImageInput) (*imagetypes.ImageProjection, error) {
	ctx, span := s.tracer.Start(ctx, "ImageService.Register", trace.WithAttributes(
		attribute.String("image.original_name", input.OriginalName),
		attribute.Int64("image.size", input.Size),
	))
	defer span.End()

	result, err := s.inner.Register(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register image")
	}
	s.metrics.addRegistered(ctx, result.Entity.Extension)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "image registered",
		slog.Int64("image.id", result.Entity.ID), slog.String("path", result.Entity.Path))
	return result, nil
}

func (s *Service) List(ctx context.Context, input imagetypes.ListImagesInput) (*imagetypes.ImagePage, error) {
	ctx, span := s.tracer.Start(ctx, "ImageService.List", trace.WithAttributes(attribute.Int("page", input.Page)))
	defer span.End()

	result, err := s.inner.List(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list images")
	}
	span.SetAttributes(attribute.Int("image.result.count", len(result.Images)))
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*imagetypes.ImageProjection, error) {
	ctx, span := s.tracer.Start(ctx, "ImageService.GetByID", trace.WithAttributes(attribute.Int64("image.id", id)))
	defer span.End()

	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load image", slog.Int64("image.id", id))
	}
	return result, nil
}

func (s *Service) Rename(ctx context.Context, input imagetypes.RenameImageInput) (*imagetypes.ImageProjection, error) {
	ctx, span := s.tracer.Start(ctx, "ImageService.Rename", trace.WithAttributes(attribute.Int64("image.id", input.ID)))
	defer span.End()

	result, err := s.inner.Rename(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to rename image", slog.Int64("image.id", input.ID))
	}
	return result, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "ImageService.Delete", trace.WithAttributes(attribute.Int64("image.id", id)))
	defer span.End()

	if err := s.inner.Delete(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete image", slog.Int64("image.id", id))
	}
	s.metrics.addDeleted(ctx)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "image deleted", slog.Int64("image.id", id))
	return nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

type serviceMetrics struct {
	registered metric.Int64Counter
	deleted    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	registered, _ := m.Int64Counter("images.service.registered", metric.WithDescription("Number of images registered"))
	deleted, _ := m.Int64Counter("images.service.deleted", metric.WithDescription("Number of images deleted"))
	return serviceMetrics{registered: registered, deleted: deleted}
}

func (m serviceMetrics) addRegistered(ctx context.Context, extension string) {
	if m.registered != nil {
		m.registered.Add(ctx, 1, metric.WithAttributes(attribute.String("image.extension", extension)))
	}
}

func (m serviceMetrics) addDeleted(ctx context.Context) {
	if m.deleted != nil {
		m.deleted.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
