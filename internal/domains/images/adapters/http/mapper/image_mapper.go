package mapper

import (
	"time"

	imagetypes "github.com/Apurer/go-gin-admin-api/internal/domains/images/application/types"
)

// Image is the HTTP representation of image metadata.
type Image struct {
	ID           int64     `json:"id"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	OriginalName string    `json:"original_name"`
	Extension    string    `json:"extension"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ImagePage mirrors the paginated list envelope.
type ImagePage struct {
	Data     []Image `json:"data"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PerPage  int     `json:"per_page"`
	LastPage int     `json:"last_page"`
}

// RegisterPayload is the body of POST /images.
type RegisterPayload struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	OriginalName string `json:"original_name" binding:"required"`
	Extension    string `json:"extension"`
}

// RenamePayload is the body of PUT /images/:id.
type RenamePayload struct {
	OriginalName string `json:"original_name" binding:"required"`
}

func ToRegisterInput(p RegisterPayload) imagetypes.RegisterImageInput {
	return imagetypes.RegisterImageInput{
		Path:         p.Path,
		Size:         p.Size,
		OriginalName: p.OriginalName,
		Extension:    p.Extension,
	}
}

func FromProjection(p *imagetypes.ImageProjection) Image {
	if p == nil || p.Entity == nil {
		return Image{}
	}
	return Image{
		ID:           p.Entity.ID,
		Path:         p.Entity.Path,
		Size:         p.Entity.Size,
		OriginalName: p.Entity.OriginalName,
		Extension:    p.Entity.Extension,
		CreatedAt:    p.Metadata.CreatedAt,
		UpdatedAt:    p.Metadata.UpdatedAt,
	}
}

func FromPage(page *imagetypes.ImagePage) ImagePage {
	if page == nil {
		return ImagePage{Data: []Image{}}
	}
	data := make([]Image, 0, len(page.Images))
	for _, p := range page.Images {
		data = append(data, FromProjection(p))
	}
	return ImagePage{Data: data, Total: page.Total, Page: page.Page, PerPage: page.Limit, LastPage: page.LastPage}
}
