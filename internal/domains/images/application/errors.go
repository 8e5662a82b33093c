package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-admin-api/internal/domains/images/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid image input")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidPath) ||
		errors.Is(err, domain.ErrInvalidName) ||
		errors.Is(err, domain.ErrInvalidSize) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
