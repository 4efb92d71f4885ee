package carts

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart not found")
	ErrLineNotFound    = errors.New("product not in cart")
	ErrVersionConflict = errors.New("cart was modified concurrently")
)

type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is the single per-owner document. Version is bumped on every write
// and guards ReplaceLineItems against concurrent mutations.
type Cart struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Items     []LineItem `json:"items"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) findLine(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) quantityOf(productID string) int {
	if i := c.findLine(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}
