package ports

import (
	"context"

	imagetypes "github.com/Apurer/go-gin-admin-api/internal/domains/images/application/types"
)

// Service exposes image metadata use cases to adapters.
type Service interface {
	Register(ctx context.Context, input imagetypes.RegisterImageInput) (*imagetypes.ImageProjection, error)
	List(ctx context.Context, input imagetypes.ListImagesInput) (*imagetypes.ImagePage, error)
	GetByID(ctx context.Context, id int64) (*imagetypes.ImageProjection, error)
	Rename(ctx context.Context, input imagetypes.RenameImageInput) (*imagetypes.ImageProjection, error)
	Delete(ctx context.Context, id int64) error
}
