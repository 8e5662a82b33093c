package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var _ ports.OrderStore = (*OrderStore)(nil)

// OrderStore persists orders in PostgreSQL using GORM.
type OrderStore struct {
	db *gorm.DB
}

// NewOrderStore wires a PostgreSQL-backed order store. Caller manages DB lifecycle.
func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// orderRecord maps the order aggregate to a relational table.
type orderRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	UserID    int64     `gorm:"column:user_id"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Insert stores a new order; a zero ID lets the sequence assign one.
func (s *OrderStore) Insert(ctx context.Context, tx ports.Tx, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return nil, err
	}
	record := toOrderRecord(order)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// FindByID fetches an order by identifier, without items.
func (s *OrderStore) FindByID(ctx context.Context, tx ports.Tx, id int64) (*domain.Order, error) {
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return nil, err
	}
	var record orderRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Update writes the scalar fields of an order.
func (s *OrderStore) Update(ctx context.Context, tx ports.Tx, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return nil, err
	}
	result := db.Model(&orderRecord{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"user_id":    order.UserID,
			"status":     string(order.Status),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return s.FindByID(ctx, tx, order.ID)
}

// Delete removes an order by identifier.
func (s *OrderStore) Delete(ctx context.Context, tx ports.Tx, id int64) error {
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return err
	}
	result := db.Delete(&orderRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List pages through committed orders ordered by id.
func (s *OrderStore) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, int64, error) {
	db, err := conn(ctx, s.db, nil)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := db.Model(&orderRecord{}).Scopes(filterScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []orderRecord
	query := db.Scopes(filterScope(filter)).Order("id ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, total, nil
}

func filterScope(filter ports.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		like := "%" + escapeLike(filter.IDQuery) + "%"
		switch {
		case filter.Status != "" && filter.IDQuery != "":
			return db.Where("status = ? OR CAST(id AS TEXT) LIKE ?", string(filter.Status), like)
		case filter.Status != "":
			return db.Where("status = ?", string(filter.Status))
		case filter.IDQuery != "":
			return db.Where("CAST(id AS TEXT) LIKE ?", like)
		default:
			return db
		}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func toOrderRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Status:    domain.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
