package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	imagetypes "github.com/Apurer/go-gin-admin-api/internal/domains/images/application/types"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/ports"
	"github.com/Apurer/go-gin-admin-api/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

type entry struct {
	image     domain.Image
	createdAt time.Time
	updatedAt time.Time
}

// Repository is an in-memory image metadata adapter.
type Repository struct {
	mu     sync.RWMutex
	images map[int64]*entry
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{images: map[int64]*entry{}}
}

func (r *Repository) Save(_ context.Context, image *domain.Image) (*imagetypes.ImageProjection, error) {
	if image == nil {
		return nil, errors.New("image is nil")
	}
	clone := *image
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.images {
		if id != clone.ID && e.image.Path == clone.Path {
			return nil, ports.ErrPathTaken
		}
	}
	now := time.Now().UTC()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
		r.images[clone.ID] = &entry{image: clone, createdAt: now, updatedAt: now}
		return toProjection(r.images[clone.ID]), nil
	}
	existing, ok := r.images[clone.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	existing.image = clone
	existing.updatedAt = now
	return toProjection(existing), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*imagetypes.ImageProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.images[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return toProjection(e), nil
}

func (r *Repository) List(_ context.Context, offset, limit int) ([]*imagetypes.ImageProjection, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.images))
	for id := range r.images {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	total := int64(len(ids))
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	list := make([]*imagetypes.ImageProjection, 0, len(ids))
	for _, id := range ids {
		list = append(list, toProjection(r.images[id]))
	}
	return list, total, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.images, id)
	return nil
}

func toProjection(e *entry) *imagetypes.ImageProjection {
	img := e.image
	return projection.New(&img, e.createdAt, e.updatedAt)
}
