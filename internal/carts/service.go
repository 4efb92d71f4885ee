package carts

import (
	"context"
	"errors"
	"fmt"

	"github.com/nmoreno/go-commerce-api/internal/catalog"
)

// Store is what the service needs from the cart repository.
type Store interface {
	FindByOwner(ctx context.Context, ownerID string) (*Cart, error)
	Create(ctx context.Context, ownerID string) (*Cart, error)
	ReplaceLineItems(ctx context.Context, cartID string, items []LineItem, version int64) (*Cart, error)
}

// Catalog is the product lookup the mutations validate against.
type Catalog interface {
	FindByID(ctx context.Context, id string) (*catalog.Product, error)
}

// Service implements the per-owner cart mutations. Every mutation is a
// read-modify-write against the single cart document; the version read is
// presented back on write, so a concurrent mutation surfaces as
// ErrVersionConflict instead of being silently overwritten.
type Service struct {
	Store   Store
	Catalog Catalog
}

// Get returns the owner's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, ownerID string) (*Cart, error) {
	c, err := s.Store.FindByOwner(ctx, ownerID)
	if errors.Is(err, ErrNotFound) {
		return s.Store.Create(ctx, ownerID)
	}
	return c, err
}

// Add merges qty into an existing line or appends a new one. The product
// must be active and have stock covering the resulting line quantity.
func (s *Service) Add(ctx context.Context, ownerID, productID string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %d", qty)
	}
	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	newQty := c.quantityOf(productID) + qty
	if p.Stock < newQty {
		return nil, &catalog.InsufficientStockError{
			ProductID: productID, Requested: newQty, Available: p.Stock,
		}
	}

	items := append([]LineItem(nil), c.Items...)
	if i := c.findLine(productID); i >= 0 {
		items[i].Quantity = newQty
	} else {
		items = append(items, LineItem{ProductID: productID, Quantity: qty})
	}
	return s.Store.ReplaceLineItems(ctx, c.ID, items, c.Version)
}

// SetQuantity pins a line to qty. Zero removes the line; an increase
// re-validates against current stock, a decrease does not.
func (s *Service) SetQuantity(ctx context.Context, ownerID, productID string, qty int) (*Cart, error) {
	if qty < 0 {
		return nil, fmt.Errorf("quantity must be non-negative: %d", qty)
	}

	c, err := s.Store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	i := c.findLine(productID)
	if i < 0 {
		return nil, ErrLineNotFound
	}

	if qty > c.Items[i].Quantity {
		p, err := s.activeProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if p.Stock < qty {
			return nil, &catalog.InsufficientStockError{
				ProductID: productID, Requested: qty, Available: p.Stock,
			}
		}
	}

	items := append([]LineItem(nil), c.Items...)
	if qty == 0 {
		items = append(items[:i], items[i+1:]...)
	} else {
		items[i].Quantity = qty
	}
	return s.Store.ReplaceLineItems(ctx, c.ID, items, c.Version)
}

func (s *Service) Remove(ctx context.Context, ownerID, productID string) (*Cart, error) {
	c, err := s.Store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	i := c.findLine(productID)
	if i < 0 {
		return nil, ErrLineNotFound
	}
	items := append([]LineItem(nil), c.Items...)
	items = append(items[:i], items[i+1:]...)
	return s.Store.ReplaceLineItems(ctx, c.ID, items, c.Version)
}

func (s *Service) Empty(ctx context.Context, ownerID string) (*Cart, error) {
	c, err := s.Store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.Store.ReplaceLineItems(ctx, c.ID, nil, c.Version)
}

func (s *Service) activeProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	p, err := s.Catalog.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &catalog.InactiveProductError{ProductID: productID}
		}
		return nil, err
	}
	if !p.Active {
		return nil, &catalog.InactiveProductError{ProductID: productID}
	}
	return p, nil
}
