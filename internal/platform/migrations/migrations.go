package migrations

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&orderItemRecord{},
		&orderIdempotencyRecord{},
		&imageRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID        int64             `gorm:"primaryKey;column:id"`
	UserID    int64             `gorm:"column:user_id;not null;index"`
	Status    string            `gorm:"column:status;type:varchar(32);not null;index"`
	Items     []orderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `gorm:"column:created_at;index"`
	UpdatedAt time.Time         `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id;not null;index"`
	ProductID int64           `gorm:"column:product_id;not null"`
	Quantity  int32           `gorm:"column:quantity;not null;check:chk_order_items_quantity,quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;check:chk_order_items_unit_price,unit_price >= 0"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Idempotency schema mirrors the orders idempotency store.
type orderIdempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }

// Image schema mirrors the images Postgres adapter.
type imageRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Path         string    `gorm:"column:path;size:512;uniqueIndex;not null"`
	Size         int64     `gorm:"column:size;not null"`
	OriginalName string    `gorm:"column:original_name;size:255;not null"`
	Extension    string    `gorm:"column:extension;size:32"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (imageRecord) TableName() string { return "images" }
