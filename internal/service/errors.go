package service

import (
	"errors" // Error inspection

	"nft_marketplace/internal/apperr"     // Client-facing errors
	"nft_marketplace/internal/repository" // Repository sentinels
)

// storageError maps repository failures onto the client-facing taxonomy
func storageError(err error, notFound string) error {
	var appErr *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr // Already classified by the service
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(notFound)
	}
	return apperr.Transient(err) // Anything else is the database failing
}
