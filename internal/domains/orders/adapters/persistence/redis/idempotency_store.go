package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const (
	keyPrefix  = "orders:idempotency:"
	DefaultTTL = 24 * time.Hour
)

// IdempotencyStore keeps idempotency keys in Redis; expiry is delegated to the key TTL.
type IdempotencyStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewIdempotencyStore wires a Redis-backed idempotency store. A non-positive ttl uses DefaultTTL.
func NewIdempotencyStore(client goredis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl, now: time.Now}
}

type storedRecord struct {
	RequestHash string    `json:"request_hash"`
	OrderID     int64     `json:"order_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Get loads a record by key, returning nil when absent or expired.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode idempotency record %q: %w", key, err)
	}
	return &ports.IdempotencyRecord{
		Key:         key,
		RequestHash: stored.RequestHash,
		OrderID:     stored.OrderID,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.CreatedAt,
	}, nil
}

// Claim reserves the key with SET NX; a lost race compares against the winner.
func (s *IdempotencyStore) Claim(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, bool, error) {
	if err := s.ensureClient(); err != nil {
		return nil, false, err
	}
	record.OrderID = 0
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	record.UpdatedAt = record.CreatedAt
	payload, err := encode(record)
	if err != nil {
		return nil, false, err
	}
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, keyPrefix+record.Key, payload, s.ttl).Result()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return &record, true, nil
		}
		existing, err := s.Get(ctx, record.Key)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			// expired between SETNX and GET
			continue
		}
		if existing.RequestHash != record.RequestHash {
			return existing, false, ports.ErrIdempotencyConflict
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("claim idempotency key %q: record vanished", record.Key)
}

// Complete rewrites the claimed record with the order id, keeping its TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, orderID int64) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	existing, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("idempotency key %q is not claimed", key)
	}
	existing.OrderID = orderID
	payload, err := encode(*existing)
	if err != nil {
		return err
	}
	return s.client.SetArgs(ctx, keyPrefix+key, payload, goredis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
}

// Release deletes the claim.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	return s.client.Del(ctx, keyPrefix+key).Err()
}

func encode(record ports.IdempotencyRecord) ([]byte, error) {
	return json.Marshal(storedRecord{
		RequestHash: record.RequestHash,
		OrderID:     record.OrderID,
		CreatedAt:   record.CreatedAt,
	})
}

func (s *IdempotencyStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis idempotency store not configured")
	}
	return nil
}
