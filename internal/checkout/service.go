// Package checkout implements the cart-to-order purchase workflow:
// snapshot validation of every line item, order materialization with
// price-at-purchase capture, guarded stock decrements and cart clearing.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nmoreno/go-commerce-api/internal/carts"
	"github.com/nmoreno/go-commerce-api/internal/catalog"
	"github.com/nmoreno/go-commerce-api/internal/orders"
)

var ErrEmptyCart = errors.New("cart is empty")

// Collaborator contracts. The Postgres repos satisfy them directly; tests
// supply in-memory fakes.
type Catalog interface {
	FindByID(ctx context.Context, id string) (*catalog.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (*catalog.Product, error)
}

type Carts interface {
	FindByOwner(ctx context.Context, ownerID string) (*carts.Cart, error)
	ReplaceLineItems(ctx context.Context, cartID string, items []carts.LineItem, version int64) (*carts.Cart, error)
}

type Orders interface {
	Create(ctx context.Context, o *orders.Order) (*orders.Order, error)
}

// Atomic groups the write phase into one storage transaction.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier handles post-commit side effects (event publishing, status
// cache). Failures there never fail the purchase.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *orders.Order)
}

type Service struct {
	Catalog Catalog
	Carts   Carts
	Orders  Orders
	Atomic  Atomic
	Notify  Notifier // optional
}

// Purchase converts the owner's cart into a persisted order.
//
// Validation runs against a snapshot read before any write; the write
// phase (order insert, stock decrements, cart clear) runs in a single
// transaction, so no rejection or failure path leaves a partial order
// visible. Stock decrements are conditional at the storage layer: a
// concurrent purchase that consumed the stock since the snapshot rolls
// the whole order back with InsufficientStockError.
func (s *Service) Purchase(ctx context.Context, ownerID string) (*orders.Order, error) {
	cart, err := s.Carts.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, carts.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// snapshot reads, one per line, issued concurrently
	products := make([]*catalog.Product, len(cart.Items))
	g, gctx := errgroup.WithContext(ctx)
	for i, it := range cart.Items {
		g.Go(func() error {
			p, err := s.Catalog.FindByID(gctx, it.ProductID)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					return &catalog.InactiveProductError{ProductID: it.ProductID}
				}
				return fmt.Errorf("fetch product %s: %w", it.ProductID, err)
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := decimal.Zero
	lines := make([]orders.LineItem, 0, len(cart.Items))
	for i, it := range cart.Items {
		p := products[i]
		if !p.Active {
			return nil, &catalog.InactiveProductError{ProductID: it.ProductID}
		}
		if p.Stock < it.Quantity {
			return nil, &catalog.InsufficientStockError{
				ProductID: it.ProductID, Requested: it.Quantity, Available: p.Stock,
			}
		}
		lines = append(lines, orders.LineItem{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: p.Price,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	var placed *orders.Order
	err = s.Atomic.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		placed, err = s.Orders.Create(ctx, &orders.Order{
			OwnerID:      ownerID,
			Items:        lines,
			TotalAmount:  total,
			Status:       orders.StatusPending,
			PurchaseDate: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("persist order: %w", err)
		}
		for _, it := range cart.Items {
			if _, err := s.Catalog.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		// the version read with the snapshot guards against a cart
		// mutation that slipped in during the purchase
		if _, err := s.Carts.ReplaceLineItems(ctx, cart.ID, nil, cart.Version); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Notify != nil {
		s.Notify.OrderPlaced(ctx, placed)
	}
	return placed, nil
}
