package catalog

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidMovementType = errors.New("movement type must be one of in, out, adjustment")
	ErrInvalidPrefix       = errors.New("category prefix must be exactly 3 letters")
)
