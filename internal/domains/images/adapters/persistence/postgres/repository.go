package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	imagetypes "github.com/Apurer/go-gin-admin-api/internal/domains/images/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/ports"
	"github.com/Apurer/go-gin-admin-api/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists image metadata in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type imageRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Path         string    `gorm:"column:path"`
	Size         int64     `gorm:"column:size"`
	OriginalName string    `gorm:"column:original_name"`
	Extension    string    `gorm:"column:extension"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (imageRecord) TableName() string { return "images" }

// Save inserts a new image when ID is zero, otherwise updates the mutable columns.
func (r *Repository) Save(ctx context.Context, image *domain.Image) (*imagetypes.ImageProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, errors.New("image is nil")
	}
	record := toRecord(image)
	db := r.db.WithContext(ctx)
	if record.ID == 0 {
		if err := db.Create(&record).Error; err != nil {
			return nil, translate(err)
		}
		return record.toProjection(), nil
	}
	result := db.Model(&imageRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"original_name": record.OriginalName,
			"updated_at":    gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches an image by identifier.
func (r *Repository) GetByID(ctx context.Context, id int64) (*imagetypes.ImageProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record imageRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// List pages through images ordered by id.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]*imagetypes.ImageProjection, int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, 0, err
	}
	db := r.db.WithContext(ctx)
	var total int64
	if err := db.Model(&imageRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []imageRecord
	query := db.Order("id ASC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	list := make([]*imagetypes.ImageProjection, 0, len(records))
	for i := range records {
		list = append(list, records[i].toProjection())
	}
	return list, total, nil
}

// Delete removes an image by identifier.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&imageRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres image repository not configured")
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ports.ErrPathTaken
	}
	return err
}

func toRecord(image *domain.Image) imageRecord {
	return imageRecord{
		ID:           image.ID,
		Path:         image.Path,
		Size:         image.Size,
		OriginalName: image.OriginalName,
		Extension:    image.Extension,
	}
}

func (r imageRecord) toProjection() *imagetypes.ImageProjection {
	return projection.New(&domain.Image{
		ID:           r.ID,
		Path:         r.Path,
		Size:         r.Size,
		OriginalName: r.OriginalName,
		Extension:    r.Extension,
	}, r.CreatedAt, r.UpdatedAt)
}
