package types

import (
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/domain"
	"github.com/Apurer/go-gin-admin-api/internal/shared/projection"
)

// ImageProjection is image metadata plus persistence timestamps.
type ImageProjection = projection.Projection[*domain.Image]

// RegisterImageInput records metadata for a file that was already stored. A blank Path is generated.
type RegisterImageInput struct {
	Path         string
	Size         int64
	OriginalName string
	Extension    string
}

// RenameImageInput changes the original name of an image.
type RenameImageInput struct {
	ID           int64
	OriginalName string
}

// ListImagesInput pages through images ordered by id. Page starts at 1.
type ListImagesInput struct {
	Page  int
	Limit int
}

// ImagePage is one page of image metadata.
type ImagePage struct {
	Images   []*ImageProjection
	Total    int64
	Page     int
	Limit    int
	LastPage int
}
