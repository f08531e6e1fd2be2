package services

import (
	"database/sql"
	"errors"
	"fmt"

	applog "botshop/internal/log"

	"botshop/internal/domain"
)

// storageErr translates repository errors into the service taxonomy.
// sql.ErrNoRows becomes ErrNotFound, domain sentinels pass through untouched,
// and anything else is logged with its raw cause but surfaced as a generic
// ErrStorage.
func storageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, op)
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrImageNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInsufficientWarehouseStock),
		errors.Is(err, domain.ErrDuplicateProductName),
		errors.Is(err, domain.ErrDuplicateCategoryName),
		errors.Is(err, domain.ErrCategoryInUse):
		return err
	default:
		applog.OpError(op, err, nil)
		return fmt.Errorf("%w: %s", domain.ErrStorage, op)
	}
}

func validationErr(field, reason string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrValidation, field, reason)
}
