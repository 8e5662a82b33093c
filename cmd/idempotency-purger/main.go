package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Apurer/go-gin-admin-api/internal/app/purger"
	orderspostgres "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/persistence/postgres"
	platformmetrics "github.com/Apurer/go-gin-admin-api/internal/platform/metrics"
	platformpostgres "github.com/Apurer/go-gin-admin-api/internal/platform/postgres"
)

// Runs once by default; PURGE_INTERVAL_MINUTES keeps it running on a schedule.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectOptional(ctx, os.Getenv("POSTGRES_DSN"), logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge idempotency keys")
	}

	registry := prometheus.NewRegistry()
	p := purger.New(
		orderspostgres.NewIdempotencyStore(db),
		positiveDurationFromEnv("IDEMPOTENCY_TTL_HOURS", time.Hour, orderspostgres.DefaultIdempotencyTTL),
		purger.WithLogger(logger),
		purger.WithMetrics(platformmetrics.NewPurgeMetrics(registry)),
		purger.WithInterval(positiveDurationFromEnv("PURGE_INTERVAL_MINUTES", time.Minute, 0)),
	)

	if strings.TrimSpace(os.Getenv("PURGE_INTERVAL_MINUTES")) == "" {
		if _, err := p.RunOnce(ctx); err != nil {
			log.Fatalf("failed to purge idempotency keys: %v", err)
		}
		return
	}

	if addr := strings.TrimSpace(os.Getenv("METRICS_ADDR")); addr != "" {
		srv := &http.Server{Addr: addr, Handler: platformmetrics.Handler(registry), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.String("error", err.Error()))
			}
		}()
		defer srv.Close()
	}
	logger.Info("idempotency purger running")
	p.Run(ctx)
}

func positiveDurationFromEnv(key string, unit, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * unit
}
