package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var (
	_ ports.Transactor = (*Transactor)(nil)
	_ ports.Tx         = (*Tx)(nil)
)

// Transactor opens GORM transactions for the order stores.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor wires a PostgreSQL-backed transactor. Caller manages DB lifecycle.
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Begin starts a transaction bound to ctx.
func (t *Transactor) Begin(ctx context.Context) (ports.Tx, error) {
	if t == nil || t.db == nil {
		return nil, errors.New("postgres transactor not configured")
	}
	tx := t.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Tx{db: tx}, nil
}

// Tx wraps an open GORM transaction.
type Tx struct {
	db *gorm.DB
}

func (t *Tx) Commit(_ context.Context) error {
	return t.db.Commit().Error
}

func (t *Tx) Rollback(_ context.Context) error {
	return t.db.Rollback().Error
}

// conn picks the transaction handle, or the pool when tx is nil.
func conn(ctx context.Context, db *gorm.DB, tx ports.Tx) (*gorm.DB, error) {
	if tx == nil {
		if db == nil {
			return nil, errors.New("postgres order store not configured")
		}
		return db.WithContext(ctx), nil
	}
	pgTx, ok := tx.(*Tx)
	if !ok || pgTx == nil || pgTx.db == nil {
		return nil, fmt.Errorf("postgres order store: foreign transaction %T", tx)
	}
	return pgTx.db.WithContext(ctx), nil
}
