// Package projection pairs a read model with the timestamps its store keeps.
package projection

import "time"

// Metadata holds the store-managed timestamps of a row.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Projection is what read paths return: the entity as stored plus its Metadata.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New builds a projection, normalising both timestamps to UTC.
func New[T any](entity T, createdAt, updatedAt time.Time) *Projection[T] {
	return &Projection[T]{
		Entity:   entity,
		Metadata: Metadata{CreatedAt: createdAt.UTC(), UpdatedAt: updatedAt.UTC()},
	}
}

