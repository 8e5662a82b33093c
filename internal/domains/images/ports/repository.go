package ports

import (
	"context"
	"errors"

	imagetypes "github.com/Apurer/go-gin-admin-api/internal/domains/images/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/domain"
)

var (
	// ErrNotFound is returned when an image does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrPathTaken is returned when another image already uses the storage path.
	ErrPathTaken = errors.New("image path already registered")
)

// Repository persists image metadata. Save inserts when ID is zero and updates otherwise.
type Repository interface {
	Save(ctx context.Context, image *domain.Image) (*imagetypes.ImageProjection, error)
	GetByID(ctx context.Context, id int64) (*imagetypes.ImageProjection, error)
	List(ctx context.Context, offset, limit int) ([]*imagetypes.ImageProjection, int64, error)
	Delete(ctx context.Context, id int64) error
}
