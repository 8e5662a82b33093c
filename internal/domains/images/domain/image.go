package domain

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath = errors.New("image path is required")
	ErrInvalidName = errors.New("image original name is required")
	ErrInvalidSize = errors.New("image size cannot be negative")
)

// Image is the metadata of an uploaded file. The file itself lives outside the service.
type Image struct {
	ID           int64
	Path         string
	Size         int64
	OriginalName string
	Extension    string
}

// NewImage validates and constructs image metadata. An empty extension is taken from the original name.
func NewImage(id int64, path string, size int64, originalName, extension string) (*Image, error) {
	img := &Image{
		ID:           id,
		Path:         strings.TrimSpace(path),
		Size:         size,
		OriginalName: strings.TrimSpace(originalName),
		Extension:    NormalizeExtension(extension, originalName),
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate enforces invariants on the aggregate.
func (i *Image) Validate() error {
	if i.Path == "" {
		return ErrInvalidPath
	}
	if i.OriginalName == "" {
		return ErrInvalidName
	}
	if i.Size < 0 {
		return ErrInvalidSize
	}
	return nil
}

// Rename changes the client-facing name; nothing else about an image is mutable.
func (i *Image) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	i.OriginalName = name
	return nil
}

// NormalizeExtension lowercases the extension without its dot, falling back to the original name.
func NormalizeExtension(extension, originalName string) string {
	ext := strings.TrimSpace(extension)
	if ext == "" {
		ext = filepath.Ext(strings.TrimSpace(originalName))
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
