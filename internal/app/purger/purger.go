// Package purger removes idempotency keys older than their replay window.
package purger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	platformmetrics "github.com/Apurer/go-gin-admin-api/internal/platform/metrics"
)

const defaultInterval = 10 * time.Minute

// Store deletes idempotency records created before cutoff.
type Store interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Option customises the Purger.
type Option func(*Purger)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Purger) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(p *Purger) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

func WithMetrics(m *platformmetrics.PurgeMetrics) Option {
	return func(p *Purger) {
		p.metrics = m
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(p *Purger) {
		if now != nil {
			p.now = now
		}
	}
}

// Purger deletes expired idempotency keys once or on an interval.
type Purger struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	metrics  *platformmetrics.PurgeMetrics
	now      func() time.Time
}

func New(store Store, ttl time.Duration, opts ...Option) *Purger {
	p := &Purger{
		store:    store,
		ttl:      ttl,
		interval: defaultInterval,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// RunOnce deletes every key created more than ttl ago.
func (p *Purger) RunOnce(ctx context.Context) (int64, error) {
	if p.store == nil {
		return 0, errors.New("purger store not configured")
	}
	if p.ttl <= 0 {
		return 0, errors.New("purger ttl must be positive")
	}
	cutoff := p.now().UTC().Add(-p.ttl)
	deleted, err := p.store.PurgeBefore(ctx, cutoff)
	if p.metrics != nil {
		p.metrics.Observe(deleted, err)
	}
	if err != nil {
		return 0, err
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "idempotency keys purged",
		slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return deleted, nil
}

// Run purges immediately and then on every tick until ctx is cancelled.
func (p *Purger) Run(ctx context.Context) {
	p.tick(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Purger) tick(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("idempotency purge failed", slog.String("error", err.Error()))
	}
}
