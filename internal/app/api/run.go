package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	adminserver "github.com/Apurer/go-gin-admin-api/go"

	imagesmemory "github.com/Apurer/go-gin-admin-api/internal/domains/images/adapters/memory"
	imagesobs "github.com/Apurer/go-gin-admin-api/internal/domains/images/adapters/observability"
	imagespostgres "github.com/Apurer/go-gin-admin-api/internal/domains/images/adapters/persistence/postgres"
	imagesapp "github.com/Apurer/go-gin-admin-api/internal/domains/images/application"
	imagesports "github.com/Apurer/go-gin-admin-api/internal/domains/images/ports"
	orderevents "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/events"
	ordersmemory "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/persistence/postgres"
	ordersredis "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/persistence/redis"
	ordersworkflows "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
	platformkafka "github.com/Apurer/go-gin-admin-api/internal/platform/kafka"
	platformmetrics "github.com/Apurer/go-gin-admin-api/internal/platform/metrics"
	"github.com/Apurer/go-gin-admin-api/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-admin-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-admin-api/internal/platform/postgres"
	platformredis "github.com/Apurer/go-gin-admin-api/internal/platform/redis"
)

const serviceName = "admin-api"

// Run boots the admin HTTP API with observability, stores, events and workflows wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	handler, cleanup, err := newServer(ctx, cfg, instruments, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{Addr: cfg.Addr(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", slog.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("admin API server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("admin API shutting down")
	return srv.Shutdown(shutdownCtx)
}

// newServer builds the router and returns a cleanup that releases every connection it opened.
func newServer(ctx context.Context, cfg Config, instruments *platformobservability.Instruments, registry *prometheus.Registry) (http.Handler, func(), error) {
	logger := effectiveLogger(instruments)
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, closeDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	cleanups = append(cleanups, closeDB)
	if db != nil && cfg.PostgresAutoMigrate {
		if err := migrations.Run(db); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		logger.Info("database schema migrated")
	}

	redisClient, closeRedis := platformredis.ConnectOptional(ctx, cfg.RedisAddr, logger)
	cleanups = append(cleanups, closeRedis)

	producer, closeProducer := platformkafka.ConnectOptional(cfg.KafkaBrokers, logger)
	cleanups = append(cleanups, closeProducer)
	var publisher ordersports.EventPublisher = orderevents.NoopPublisher{}
	if producer != nil {
		publisher = orderevents.NewKafkaPublisher(producer, cfg.KafkaTopic, logger)
	}

	stores := buildOrderStores(db, logger)
	var idempotency ordersports.IdempotencyStore = stores.idempotency
	if redisClient != nil {
		idempotency = ordersredis.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL())
		logger.Info("idempotency keys stored in redis")
	}

	coreOrderService := ordersapp.NewService(stores.tx, stores.orders, stores.items,
		ordersapp.WithIdempotencyStore(idempotency),
		ordersapp.WithEventPublisher(publisher),
		ordersapp.WithLogger(logger),
		ordersapp.WithUpdateConcurrency(cfg.ItemUpdateConcurrency),
		ordersapp.WithDefaultPageLimit(cfg.DefaultPageLimit),
	)
	orderService := ordersobs.New(
		coreOrderService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	var orderWorkflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(orderService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, creating orders inline", slog.String("error", err.Error()))
	} else {
		cleanups = append(cleanups, temporalClient.Close)
		orderWorkflows = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	imageService := imagesobs.New(
		imagesapp.NewService(buildImageRepository(db)),
		imagesobs.WithLogger(logger),
		imagesobs.WithTracer(instruments.Tracer("internal.images.application")),
		imagesobs.WithMeter(instruments.Meter("internal.images.application")),
	)

	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := platformmetrics.NewHTTPMetrics(registry)

	router := gin.New()
	router.Use(gin.Recovery(), adminserver.RequestID(), otelgin.Middleware(serviceName), httpMetrics.Middleware())
	router.GET("/metrics", gin.WrapH(platformmetrics.Handler(registry)))
	router = adminserver.NewRouterWithGinEngine(router, adminserver.ApiHandleFunctions{
		OrderAPI: adminserver.NewOrderAPI(orderService, orderWorkflows),
		ImageAPI: adminserver.NewImageAPI(imageService),
	})
	return router, cleanup, nil
}

type orderStores struct {
	tx          ordersports.Transactor
	orders      ordersports.OrderStore
	items       ordersports.ItemStore
	idempotency ordersports.IdempotencyStore
}

func buildOrderStores(db *gorm.DB, logger *slog.Logger) orderStores {
	if db == nil {
		store := ordersmemory.NewStore()
		return orderStores{tx: store, orders: store.Orders(), items: store.Items(), idempotency: ordersmemory.NewIdempotencyStore()}
	}
	logger.Info("order stores configured with postgres")
	return orderStores{
		tx:          orderspostgres.NewTransactor(db),
		orders:      orderspostgres.NewOrderStore(db),
		items:       orderspostgres.NewItemStore(db),
		idempotency: orderspostgres.NewIdempotencyStore(db),
	}
}

func buildImageRepository(db *gorm.DB) imagesports.Repository {
	if db == nil {
		return imagesmemory.NewRepository()
	}
	return imagespostgres.NewRepository(db)
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
