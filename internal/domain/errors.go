package domain

import "errors"

// Error taxonomy surfaced by the services. Storage errors are wrapped into
// ErrStorage before crossing the service boundary; the raw cause is logged,
// not returned to callers.
var (
	ErrValidation                 = errors.New("validation failed")
	ErrNotFound                   = errors.New("not found")
	ErrImageNotFound              = errors.New("image not found")
	ErrDuplicateProductName       = errors.New("product name already in use")
	ErrDuplicateCategoryName      = errors.New("category name already in use")
	ErrInsufficientWarehouseStock = errors.New("insufficient warehouse stock")
	ErrInvalidQuantity            = errors.New("invalid quantity")
	ErrCategoryInUse              = errors.New("category has active products")
	ErrStorage                    = errors.New("storage failure")
)
