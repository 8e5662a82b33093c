package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/orders/ports"
)

var _ ports.ItemStore = (*ItemStore)(nil)

// ItemStore persists order line items in PostgreSQL using GORM.
type ItemStore struct {
	db *gorm.DB
}

// NewItemStore wires a PostgreSQL-backed item store. Caller manages DB lifecycle.
func NewItemStore(db *gorm.DB) *ItemStore {
	return &ItemStore{db: db}
}

type itemRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id"`
	ProductID int64           `gorm:"column:product_id"`
	Quantity  int32           `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (itemRecord) TableName() string { return "order_items" }

type summaryRow struct {
	OrderID   int64           `gorm:"column:order_id"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal"`
	ItemCount int64           `gorm:"column:item_count"`
}

// InsertMany bulk-inserts lines for an order in one statement.
func (s *ItemStore) InsertMany(ctx context.Context, tx ports.Tx, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return nil, err
	}
	records := make([]itemRecord, 0, len(items))
	for _, item := range items {
		item.ID = 0
		item.OrderID = orderID
		records = append(records, toItemRecord(item))
	}
	if err := db.Create(&records).Error; err != nil {
		return nil, err
	}
	saved := make([]domain.OrderItem, 0, len(records))
	for i := range records {
		saved = append(saved, records[i].toDomain())
	}
	return saved, nil
}

func (s *ItemStore) ListByOrder(ctx context.Context, tx ports.Tx, orderID int64) ([]domain.OrderItem, error) {
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return nil, err
	}
	var records []itemRecord
	if err := db.Where("order_id = ?", orderID).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainItems(records), nil
}

func (s *ItemStore) FindByIDs(ctx context.Context, tx ports.Tx, orderID int64, ids []int64) ([]domain.OrderItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return nil, err
	}
	var records []itemRecord
	if err := db.Where("order_id = ? AND id IN ?", orderID, ids).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainItems(records), nil
}

func (s *ItemStore) Update(ctx context.Context, tx ports.Tx, item domain.OrderItem) error {
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return err
	}
	result := db.Model(&itemRecord{}).
		Where("id = ? AND order_id = ?", item.ID, item.OrderID).
		Updates(map[string]any{
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
			"subtotal":   item.Subtotal,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: item %d of order %d", ports.ErrItemNotFound, item.ID, item.OrderID)
	}
	return nil
}

func (s *ItemStore) DeleteByOrder(ctx context.Context, tx ports.Tx, orderID int64) error {
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return err
	}
	return db.Where("order_id = ?", orderID).Delete(&itemRecord{}).Error
}

func (s *ItemStore) DeleteExcept(ctx context.Context, tx ports.Tx, orderID int64, keepIDs []int64) error {
	if len(keepIDs) == 0 {
		return s.DeleteByOrder(ctx, tx, orderID)
	}
	db, err := conn(ctx, s.db, tx)
	if err != nil {
		return err
	}
	return db.Where("order_id = ? AND id NOT IN ?", orderID, keepIDs).Delete(&itemRecord{}).Error
}

// Summaries sums subtotal and quantity per order with a single grouped query.
func (s *ItemStore) Summaries(ctx context.Context, orderIDs []int64) (map[int64]domain.Summary, error) {
	result := make(map[int64]domain.Summary, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}
	db, err := conn(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}
	var rows []summaryRow
	err = db.Raw(`SELECT order_id, SUM(subtotal) AS subtotal, SUM(quantity) AS item_count
		FROM order_items
		WHERE order_id = ANY(?)
		GROUP BY order_id`, pq.Array(orderIDs)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.OrderID] = domain.Summary{Subtotal: row.Subtotal, ItemCount: row.ItemCount}
	}
	return result, nil
}

func toItemRecord(item domain.OrderItem) itemRecord {
	return itemRecord{
		ID:        item.ID,
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		Subtotal:  item.Subtotal,
	}
}

func (r itemRecord) toDomain() domain.OrderItem {
	return domain.OrderItem{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		Subtotal:  r.Subtotal,
	}
}

func toDomainItems(records []itemRecord) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(records))
	for i := range records {
		items = append(items, records[i].toDomain())
	}
	return items
}
