package application

import (
	"context"
	"strings"

	"github.com/google/uuid"

	imagetypes "github.com/Apurer/go-gin-admin-api/internal/domains/images/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/ports"
)

const (
	defaultPageLimit = 15
	maxPageLimit     = 100
)

// Service orchestrates image metadata use cases.
type Service struct {
	repo    ports.Repository
	newPath func(extension string) string
}

type Option func(*Service)

// WithPathGenerator overrides how storage paths are named when the caller leaves them blank.
func WithPathGenerator(fn func(extension string) string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newPath = fn
		}
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, newPath: uuidPath}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register stores metadata for an uploaded file.
func (s *Service) Register(ctx context.Context, input imagetypes.RegisterImageInput) (*imagetypes.ImageProjection, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		path = s.newPath(domain.NormalizeExtension(input.Extension, input.OriginalName))
	}
	img, err := domain.NewImage(0, path, input.Size, input.OriginalName, input.Extension)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, img)
}

func (s *Service) List(ctx context.Context, input imagetypes.ListImagesInput) (*imagetypes.ImagePage, error) {
	page, limit := input.Page, input.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	images, total, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	last := int((total + int64(limit) - 1) / int64(limit))
	if last < 1 {
		last = 1
	}
	return &imagetypes.ImagePage{Images: images, Total: total, Page: page, Limit: limit, LastPage: last}, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*imagetypes.ImageProjection, error) {
	return s.repo.GetByID(ctx, id)
}

// Rename updates the original name; path, size and extension never change.
func (s *Service) Rename(ctx context.Context, input imagetypes.RenameImageInput) (*imagetypes.ImageProjection, error) {
	current, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	img := *current.Entity
	if err := img.Rename(input.OriginalName); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, &img)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func uuidPath(extension string) string {
	name := uuid.NewString()
	if extension != "" {
		name += "." + extension
	}
	return name
}

var _ ports.Service = (*Service)(nil)
