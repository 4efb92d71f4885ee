package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

// LineItem freezes the price at purchase time; catalog price changes after
// the fact never touch an existing order.
type LineItem struct {
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// Order is immutable once created, except for Status. Orders are never
// hard-deleted; cancellation is a status transition.
type Order struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Items        []LineItem      `json:"items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       Status          `json:"status"`
	PurchaseDate time.Time       `json:"purchase_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
