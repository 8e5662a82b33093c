package purger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersmemory "github.com/Apurer/go-gin-admin-api/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
	platformmetrics "github.com/Apurer/go-gin-admin-api/internal/platform/metrics"
)

type failingStore struct{}

func (failingStore) PurgeBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db down")
}

type recordingStore struct {
	cutoffs chan time.Time
}

func (s *recordingStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs <- cutoff
	return 1, nil
}

func TestRunOnce_UsesTTLCutoff(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &recordingStore{cutoffs: make(chan time.Time, 1)}
	p := New(store, 2*time.Hour, WithClock(func() time.Time { return now }))

	deleted, err := p.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, now.Add(-2*time.Hour), <-store.cutoffs)
}

func TestRunOnce_PurgesMemoryStore(t *testing.T) {
	store := ordersmemory.NewIdempotencyStore()
	_, _, err := store.Claim(t.Context(), ports.IdempotencyRecord{Key: "k", RequestHash: "h"})
	require.NoError(t, err)

	later := func() time.Time { return time.Now().Add(48 * time.Hour) }
	deleted, err := New(store, 24*time.Hour, WithClock(later)).RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	got, err := store.Get(t.Context(), "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunOnce_ReportsFailures(t *testing.T) {
	metrics := platformmetrics.NewPurgeMetrics(prometheus.NewRegistry())
	_, err := New(failingStore{}, time.Hour, WithMetrics(metrics)).RunOnce(t.Context())
	assert.Error(t, err)

	_, err = New(nil, time.Hour).RunOnce(t.Context())
	assert.Error(t, err)
	_, err = New(failingStore{}, 0).RunOnce(t.Context())
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := &recordingStore{cutoffs: make(chan time.Time, 8)}
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		New(store, time.Hour, WithInterval(time.Millisecond)).Run(ctx)
		close(done)
	}()

	<-store.cutoffs
	<-store.cutoffs
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purger did not stop after cancel")
	}
}
