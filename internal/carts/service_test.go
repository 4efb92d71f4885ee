package carts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoreno/go-commerce-api/internal/catalog"
)

type memStore struct {
	carts map[string]*Cart // by owner
}

func (m *memStore) FindByOwner(_ context.Context, ownerID string) (*Cart, error) {
	c, ok := m.carts[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.Items = append([]LineItem(nil), c.Items...)
	return &cp, nil
}

func (m *memStore) Create(_ context.Context, ownerID string) (*Cart, error) {
	if c, ok := m.carts[ownerID]; ok {
		return c, nil
	}
	c := &Cart{ID: "cart-" + ownerID, OwnerID: ownerID, Items: []LineItem{}, Version: 1}
	m.carts[ownerID] = c
	cp := *c
	return &cp, nil
}

func (m *memStore) ReplaceLineItems(_ context.Context, cartID string, items []LineItem, version int64) (*Cart, error) {
	for _, c := range m.carts {
		if c.ID != cartID {
			continue
		}
		if c.Version != version {
			return nil, ErrVersionConflict
		}
		c.Items = append([]LineItem(nil), items...)
		c.Version++
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

type memCatalog struct {
	products map[string]*catalog.Product
}

func (m *memCatalog) FindByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func newService(products map[string]*catalog.Product) (*Service, *memStore) {
	st := &memStore{carts: map[string]*Cart{}}
	return &Service{Store: st, Catalog: &memCatalog{products: products}}, st
}

func TestGetCreatesOnFirstAccess(t *testing.T) {
	svc, st := newService(nil)

	c, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.OwnerID)
	assert.Empty(t, c.Items)
	assert.Contains(t, st.carts, "u1")

	again, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
}

func TestAddMergesExistingLine(t *testing.T) {
	svc, _ := newService(map[string]*catalog.Product{
		"P1": {ID: "P1", Price: decimal.New(500, -2), Stock: 10, Active: true},
	})

	_, err := svc.Add(context.Background(), "u1", "P1", 2)
	require.NoError(t, err)
	c, err := svc.Add(context.Background(), "u1", "P1", 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestAddRejectsBeyondStock(t *testing.T) {
	svc, _ := newService(map[string]*catalog.Product{
		"P1": {ID: "P1", Stock: 4, Active: true},
	})

	_, err := svc.Add(context.Background(), "u1", "P1", 3)
	require.NoError(t, err)

	// merged quantity 6 exceeds the 4 in stock
	_, err = svc.Add(context.Background(), "u1", "P1", 3)
	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 4, stockErr.Available)
}

func TestAddInactiveProduct(t *testing.T) {
	svc, _ := newService(map[string]*catalog.Product{
		"P1": {ID: "P1", Stock: 4, Active: false},
	})

	_, err := svc.Add(context.Background(), "u1", "P1", 1)
	var inactiveErr *catalog.InactiveProductError
	assert.ErrorAs(t, err, &inactiveErr)

	_, err = svc.Add(context.Background(), "u1", "missing", 1)
	assert.ErrorAs(t, err, &inactiveErr)
}

func TestSetQuantity(t *testing.T) {
	svc, _ := newService(map[string]*catalog.Product{
		"P1": {ID: "P1", Stock: 5, Active: true},
	})
	_, err := svc.Add(context.Background(), "u1", "P1", 2)
	require.NoError(t, err)

	t.Run("increase revalidates stock", func(t *testing.T) {
		_, err := svc.SetQuantity(context.Background(), "u1", "P1", 9)
		var stockErr *catalog.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 9, stockErr.Requested)
	})

	t.Run("decrease always allowed", func(t *testing.T) {
		c, err := svc.SetQuantity(context.Background(), "u1", "P1", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Items[0].Quantity)
	})

	t.Run("zero removes the line", func(t *testing.T) {
		c, err := svc.SetQuantity(context.Background(), "u1", "P1", 0)
		require.NoError(t, err)
		assert.Empty(t, c.Items)
	})

	t.Run("unknown line", func(t *testing.T) {
		_, err := svc.SetQuantity(context.Background(), "u1", "P1", 1)
		assert.ErrorIs(t, err, ErrLineNotFound)
	})
}

func TestRemoveAndEmpty(t *testing.T) {
	svc, _ := newService(map[string]*catalog.Product{
		"P1": {ID: "P1", Stock: 5, Active: true},
		"P2": {ID: "P2", Stock: 5, Active: true},
	})
	_, err := svc.Add(context.Background(), "u1", "P1", 1)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "u1", "P2", 1)
	require.NoError(t, err)

	c, err := svc.Remove(context.Background(), "u1", "P1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "P2", c.Items[0].ProductID)

	_, err = svc.Remove(context.Background(), "u1", "P1")
	assert.ErrorIs(t, err, ErrLineNotFound)

	c, err = svc.Empty(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestConcurrentMutationSurfacesAsConflict(t *testing.T) {
	svc, st := newService(map[string]*catalog.Product{
		"P1": {ID: "P1", Stock: 5, Active: true},
	})
	_, err := svc.Add(context.Background(), "u1", "P1", 1)
	require.NoError(t, err)

	// stale write: replay against the version before the Add
	_, err = st.ReplaceLineItems(context.Background(), "cart-u1", nil, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)
}
