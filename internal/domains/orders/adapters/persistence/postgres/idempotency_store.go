package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var _ ports.TxIdempotencyStore = (*IdempotencyStore)(nil)

// DefaultIdempotencyTTL bounds how long a key can be replayed before the purger removes it.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore persists idempotency keys in PostgreSQL.
type IdempotencyStore struct {
	db *gorm.DB
}

// NewIdempotencyStore wires a PostgreSQL-backed idempotency store.
func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// Get loads a record by key, returning nil when absent.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPortRecord(&record), nil
}

// Claim inserts a pending record with ON CONFLICT DO NOTHING. The insert commits
// on its own, so a concurrent claimer sees the key before any order exists.
func (s *IdempotencyStore) Claim(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, bool, error) {
	if err := s.ensureDB(); err != nil {
		return nil, false, err
	}
	record.OrderID = 0
	dbRecord := toDBRecord(record)
	for attempt := 0; attempt < 2; attempt++ {
		result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&dbRecord)
		if result.Error != nil {
			return nil, false, result.Error
		}
		if result.RowsAffected == 1 {
			return toPortRecord(&dbRecord), true, nil
		}
		existing, err := s.Get(ctx, record.Key)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			// purged between the insert and the read
			continue
		}
		if existing.RequestHash != record.RequestHash {
			return existing, false, ports.ErrIdempotencyConflict
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("claim idempotency key %q: record vanished", record.Key)
}

// Complete binds the key outside any transaction.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, orderID int64) error {
	return s.CompleteTx(ctx, nil, key, orderID)
}

// CompleteTx binds the key through the order transaction, so it only becomes
// visible to concurrent requests once the order is committed.
func (s *IdempotencyStore) CompleteTx(ctx context.Context, tx ports.Tx, key string, orderID int64) error {
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return err
	}
	result := db.Model(&idempotencyRecord{}).
		Where("key = ?", key).
		Updates(map[string]any{"order_id": orderID, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("idempotency key %q is not claimed", key)
	}
	return nil
}

// Release deletes the claim.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&idempotencyRecord{}).Error
}

// PurgeBefore deletes keys created before cutoff.
func (s *IdempotencyStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&idempotencyRecord{})
	return result.RowsAffected, result.Error
}

func (s *IdempotencyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency store not configured")
	}
	return nil
}

type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }

func toDBRecord(rec ports.IdempotencyRecord) idempotencyRecord {
	return idempotencyRecord{
		Key:         rec.Key,
		RequestHash: rec.RequestHash,
		OrderID:     rec.OrderID,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func toPortRecord(rec *idempotencyRecord) *ports.IdempotencyRecord {
	if rec == nil {
		return nil
	}
	return &ports.IdempotencyRecord{
		Key:         rec.Key,
		RequestHash: rec.RequestHash,
		OrderID:     rec.OrderID,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}
