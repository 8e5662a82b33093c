package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	orderevents "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/events"
	ordersobs "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-gin-admin-api/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
	platformkafka "github.com/Apurer/go-gin-admin-api/internal/platform/kafka"
	platformobservability "github.com/Apurer/go-gin-admin-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-admin-api/internal/platform/postgres"
	orderactivities "github.com/Apurer/go-gin-admin-api/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-admin-api/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "admin-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	// orders written here must land in the API database
	db, cleanupDB := platformpostgres.ConnectOptional(ctx, os.Getenv("POSTGRES_DSN"), logger)
	defer cleanupDB()
	if db == nil {
		logger.Error("worker requires POSTGRES_DSN")
		os.Exit(1)
	}
	producer, cleanupProducer := platformkafka.ConnectOptional(os.Getenv("KAFKA_BROKERS"), logger)
	defer cleanupProducer()
	var publisher ordersports.EventPublisher = orderevents.NoopPublisher{}
	if producer != nil {
		publisher = orderevents.NewKafkaPublisher(producer, envOrDefault("KAFKA_TOPIC", orderevents.DefaultTopic), logger)
	}

	orderService := ordersobs.New(
		ordersapp.NewService(
			orderspostgres.NewTransactor(db),
			orderspostgres.NewOrderStore(db),
			orderspostgres.NewItemStore(db),
			ordersapp.WithIdempotencyStore(orderspostgres.NewIdempotencyStore(db)),
			ordersapp.WithEventPublisher(publisher),
			ordersapp.WithLogger(logger),
		),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	orderActivities := orderactivities.NewActivities(orderService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderCreationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderCreationWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderCreationWorkflowName})
	w.RegisterActivityWithOptions(orderActivities.PersistOrder, activity.RegisterOptions{Name: orderactivities.PersistOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderCreationTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
