package controllers

import (
	"errors"
	"fmt"

	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/utils"
)

// mapServiceError translates repository and service sentinels into the
// API error vocabulary
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", utils.ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", utils.ErrAlreadyExists, err)
	case errors.Is(err, repository.ErrInvalidInput):
		return fmt.Errorf("%w: %v", utils.ErrBadRequest, err)
	default:
		return err
	}
}
