package catalog

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("product not found")

// InactiveProductError marks a product that exists (or existed) but cannot
// be sold: missing from the catalog or soft-deleted.
type InactiveProductError struct {
	ProductID string
}

func (e *InactiveProductError) Error() string {
	return fmt.Sprintf("product %s is inactive or no longer available", e.ProductID)
}

// InsufficientStockError reports exactly what was asked for and what was
// available, so callers can render an actionable message.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
