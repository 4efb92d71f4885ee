package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoreno/go-commerce-api/internal/carts"
	"github.com/nmoreno/go-commerce-api/internal/catalog"
	"github.com/nmoreno/go-commerce-api/internal/checkout"
	"github.com/nmoreno/go-commerce-api/internal/lifecycle"
	"github.com/nmoreno/go-commerce-api/internal/orders"
	"github.com/nmoreno/go-commerce-api/internal/session"
	"github.com/nmoreno/go-commerce-api/internal/users"
)

// identityFor injects a resolved identity the way the auth middleware
// would, bypassing Redis.
func identityFor(id *session.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id != nil {
				req = req.WithContext(session.WithIdentity(req.Context(), id))
			}
			next.ServeHTTP(w, req)
		})
	}
}

func doJSON(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type stubPurchase struct {
	order *orders.Order
	err   error
}

func (s *stubPurchase) Purchase(context.Context, string) (*orders.Order, error) {
	return s.order, s.err
}

type stubOrderStore struct {
	byID map[string]*orders.Order
}

func (s *stubOrderStore) GetByID(_ context.Context, id string) (*orders.Order, error) {
	o, ok := s.byID[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

func (s *stubOrderStore) List(context.Context, orders.Filter, int, int) ([]orders.Order, int64, error) {
	var out []orders.Order
	for _, o := range s.byID {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (s *stubOrderStore) ListByOwner(_ context.Context, ownerID string, _, _ int) ([]orders.Order, int64, error) {
	var out []orders.Order
	for _, o := range s.byID {
		if o.OwnerID == ownerID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubOrderStore) UpdateStatus(_ context.Context, id string, to orders.Status) (*orders.Order, error) {
	o, ok := s.byID[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	if !orders.ValidStatus(to) || !orders.CanTransition(o.Status, to) {
		return nil, orders.ErrInvalidTransition
	}
	o.Status = to
	return o, nil
}

func ordersRouter(id *session.Identity, store *stubOrderStore, svc *stubPurchase) chi.Router {
	r := chi.NewRouter()
	r.Use(identityFor(id))
	(&OrdersHandler{Store: store, Checkout: svc}).Register(r)
	return r
}

func TestPurchaseEndpoint(t *testing.T) {
	placed := &orders.Order{
		ID:          "o1",
		OwnerID:     "u1",
		Status:      orders.StatusPending,
		TotalAmount: decimal.RequireFromString("20.00"),
	}
	r := ordersRouter(&session.Identity{UserID: "u1", Role: users.RoleUser},
		&stubOrderStore{byID: map[string]*orders.Order{}},
		&stubPurchase{order: placed})

	rec := doJSON(t, r, http.MethodPost, "/api/orders/purchase", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "o1", got.ID)
}

func TestPurchaseEndpointErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"empty cart", checkout.ErrEmptyCart, http.StatusBadRequest, "cart is empty"},
		{"insufficient stock",
			&catalog.InsufficientStockError{ProductID: "P2", Requested: 10, Available: 3},
			http.StatusConflict, `"product_id":"P2"`},
		{"inactive product",
			&catalog.InactiveProductError{ProductID: "P9"},
			http.StatusBadRequest, `"product_id":"P9"`},
		{"cart raced", carts.ErrVersionConflict, http.StatusConflict, "cart"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ordersRouter(&session.Identity{UserID: "u1", Role: users.RoleUser},
				&stubOrderStore{byID: map[string]*orders.Order{}},
				&stubPurchase{err: tc.err})
			rec := doJSON(t, r, http.MethodPost, "/api/orders/purchase", "")
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestPurchaseRequiresAuth(t *testing.T) {
	r := ordersRouter(nil, &stubOrderStore{byID: map[string]*orders.Order{}}, &stubPurchase{})
	rec := doJSON(t, r, http.MethodPost, "/api/orders/purchase", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetOrderHidesOtherOwners(t *testing.T) {
	store := &stubOrderStore{byID: map[string]*orders.Order{
		"o1": {ID: "o1", OwnerID: "someone-else", Status: orders.StatusPending},
	}}

	r := ordersRouter(&session.Identity{UserID: "u1", Role: users.RoleUser}, store, &stubPurchase{})
	rec := doJSON(t, r, http.MethodGet, "/api/orders/o1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// admins see everything
	r = ordersRouter(&session.Identity{UserID: "a1", Role: users.RoleAdmin}, store, &stubPurchase{})
	rec = doJSON(t, r, http.MethodGet, "/api/orders/o1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatusTransitions(t *testing.T) {
	admin := &session.Identity{UserID: "a1", Role: users.RoleAdmin}

	t.Run("pending to completed", func(t *testing.T) {
		store := &stubOrderStore{byID: map[string]*orders.Order{
			"o1": {ID: "o1", OwnerID: "u1", Status: orders.StatusPending},
		}}
		rec := doJSON(t, ordersRouter(admin, store, &stubPurchase{}),
			http.MethodPut, "/api/orders/o1", `{"status":"completed"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, orders.StatusCompleted, store.byID["o1"].Status)
	})

	t.Run("pending to shipped rejected", func(t *testing.T) {
		store := &stubOrderStore{byID: map[string]*orders.Order{
			"o1": {ID: "o1", OwnerID: "u1", Status: orders.StatusPending},
		}}
		rec := doJSON(t, ordersRouter(admin, store, &stubPurchase{}),
			http.MethodPut, "/api/orders/o1", `{"status":"shipped"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, orders.StatusPending, store.byID["o1"].Status)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		store := &stubOrderStore{byID: map[string]*orders.Order{
			"o1": {ID: "o1", OwnerID: "u1", Status: orders.StatusPending},
		}}
		user := &session.Identity{UserID: "u1", Role: users.RoleUser}
		rec := doJSON(t, ordersRouter(user, store, &stubPurchase{}),
			http.MethodPut, "/api/orders/o1", `{"status":"completed"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

type fakeStatusCache struct {
	entries map[string]string
}

func (f *fakeStatusCache) GetStatus(_ context.Context, orderID string) (string, error) {
	return f.entries[orderID], nil
}

func (f *fakeStatusCache) SetStatus(_ context.Context, orderID, status string) error {
	f.entries[orderID] = `{"status":"` + status + `"}`
	return nil
}

func TestOrderStatusCache(t *testing.T) {
	store := &stubOrderStore{byID: map[string]*orders.Order{
		"o1": {ID: "o1", OwnerID: "u1", Status: orders.StatusCompleted},
	}}
	cache := &fakeStatusCache{entries: map[string]string{}}
	admin := &session.Identity{UserID: "a1", Role: users.RoleAdmin}

	r := chi.NewRouter()
	r.Use(identityFor(admin))
	(&OrdersHandler{Store: store, Checkout: &stubPurchase{}, Cache: cache}).Register(r)

	// cold read falls back to the store and repopulates the cache
	rec := doJSON(t, r, http.MethodGet, "/api/orders/o1/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"completed"}`, rec.Body.String())
	assert.Equal(t, `{"status":"completed"}`, cache.entries["o1"])

	// warm read is served from the cache, not the store
	cache.entries["o1"] = `{"status":"shipped"}`
	rec = doJSON(t, r, http.MethodGet, "/api/orders/o1/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"shipped"}`, rec.Body.String())
}

func TestOrderStatusOwnerBypassesCache(t *testing.T) {
	store := &stubOrderStore{byID: map[string]*orders.Order{
		"o1": {ID: "o1", OwnerID: "u1", Status: orders.StatusPending},
	}}
	cache := &fakeStatusCache{entries: map[string]string{"o1": `{"status":"shipped"}`}}

	r := chi.NewRouter()
	r.Use(identityFor(&session.Identity{UserID: "u1", Role: users.RoleUser}))
	(&OrdersHandler{Store: store, Checkout: &stubPurchase{}, Cache: cache}).Register(r)

	// owners go through the ownership check against the store
	rec := doJSON(t, r, http.MethodGet, "/api/orders/o1/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"pending"}`, rec.Body.String())

	// and other users' orders stay hidden
	r2 := chi.NewRouter()
	r2.Use(identityFor(&session.Identity{UserID: "u2", Role: users.RoleUser}))
	(&OrdersHandler{Store: store, Checkout: &stubPurchase{}, Cache: cache}).Register(r2)
	rec = doJSON(t, r2, http.MethodGet, "/api/orders/o1/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubUserStore struct {
	users    []users.User
	lastRole users.Role
}

func (s *stubUserStore) GetByID(_ context.Context, id string) (*users.User, error) {
	for i := range s.users {
		if s.users[i].ID == id {
			return &s.users[i], nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *stubUserStore) List(_ context.Context, f users.Filter, _, _ int) ([]users.User, int64, error) {
	s.lastRole = f.Role
	var out []users.User
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (s *stubUserStore) Update(_ context.Context, id string, _ users.Update) (*users.User, error) {
	return s.GetByID(nil, id)
}

func (s *stubUserStore) SetRole(_ context.Context, id string, role users.Role) (*users.User, error) {
	u, err := s.GetByID(nil, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	return u, nil
}

func (s *stubUserStore) SetLifecycle(_ context.Context, id string, to lifecycle.State) (*users.User, error) {
	u, err := s.GetByID(nil, id)
	if err != nil {
		return nil, err
	}
	u.Active = to == lifecycle.Active
	return u, nil
}

func TestListUsersRoleFilter(t *testing.T) {
	store := &stubUserStore{users: []users.User{
		{ID: "u1", Role: users.RoleUser},
		{ID: "a1", Role: users.RoleAdmin},
	}}
	r := chi.NewRouter()
	r.Use(identityFor(&session.Identity{UserID: "a1", Role: users.RoleAdmin}))
	(&UsersHandler{Store: store}).Register(r)

	rec := doJSON(t, r, http.MethodGet, "/api/users?role=admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, users.RoleAdmin, store.lastRole)

	var page Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Total)
}

type stubCartService struct {
	cart *carts.Cart
	err  error
}

func (s *stubCartService) Get(context.Context, string) (*carts.Cart, error) { return s.cart, s.err }
func (s *stubCartService) Add(context.Context, string, string, int) (*carts.Cart, error) {
	return s.cart, s.err
}
func (s *stubCartService) SetQuantity(context.Context, string, string, int) (*carts.Cart, error) {
	return s.cart, s.err
}
func (s *stubCartService) Remove(context.Context, string, string) (*carts.Cart, error) {
	return s.cart, s.err
}
func (s *stubCartService) Empty(context.Context, string) (*carts.Cart, error) {
	return s.cart, s.err
}

func TestCartEndpointValidation(t *testing.T) {
	r := chi.NewRouter()
	r.Use(identityFor(&session.Identity{UserID: "u1", Role: users.RoleUser}))
	(&CartsHandler{Carts: &stubCartService{cart: &carts.Cart{ID: "c1"}}}).Register(r)

	rec := doJSON(t, r, http.MethodPost, "/api/carts/products/P1", `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// no body defaults to one unit
	rec = doJSON(t, r, http.MethodPost, "/api/carts/products/P1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/carts/products/P1", `{"quantity":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPut, "/api/carts/products/P1", `{"quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/carts/my-cart", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRequestTimeout(t *testing.T) {
	r := NewRouter(20 * time.Millisecond)
	r.Get("/slow", func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	})

	rec := doJSON(t, r, http.MethodGet, "/slow", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	r.Get("/fast", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec = doJSON(t, r, http.MethodGet, "/fast", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPageParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=25", nil)
	page, limit := pageParams(req)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=9999", nil)
	page, limit = pageParams(req)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestNewPage(t *testing.T) {
	p := newPage([]int{1, 2, 3}, 23, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)

	last := newPage([]int{1, 2, 3}, 23, 3, 10)
	assert.False(t, last.HasNext)
}
