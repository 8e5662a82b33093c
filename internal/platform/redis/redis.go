package redis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ConnectOptional dials Redis when addr is set and returns the client plus a cleanup function.
// When addr is empty or Redis does not answer PING, it logs and returns nil with a no-op cleanup.
func ConnectOptional(ctx context.Context, addr string, logger *slog.Logger) (*goredis.Client, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, func() {}
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("failed to connect to redis, idempotency keys fall back to the database",
			slog.String("addr", addr), slog.String("error", err.Error()))
		_ = client.Close()
		return nil, func() {}
	}
	logger.Info("redis connection established", slog.String("addr", addr))
	return client, func() { _ = client.Close() }
}
