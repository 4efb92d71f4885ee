package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreno/go-commerce-api/internal/catalog"
	"github.com/nmoreno/go-commerce-api/internal/mocks"
	"github.com/nmoreno/go-commerce-api/internal/session"
	"github.com/nmoreno/go-commerce-api/internal/users"
)

type mockUserInserter interface {
	Create(ctx context.Context, u *users.User) (*users.User, error)
}

type mockProductInserter interface {
	Create(ctx context.Context, p *catalog.Product) (*catalog.Product, error)
}

// MocksHandler serves generated fixture data. The GET endpoints fabricate
// records without persisting them; the POST seeds the database.
type MocksHandler struct {
	Users      mockUserInserter
	Products   mockProductInserter
	BcryptCost int
}

func (h *MocksHandler) Register(r chi.Router) {
	r.Get("/api/mocks/users", h.users)
	r.Get("/api/mocks/products", h.products)
	r.With(session.RequireAdmin).Post("/api/mocks/generate-data", h.generate)
}

const maxMockCount = 500

func countParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("count")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > maxMockCount {
		return maxMockCount
	}
	return n
}

func (h *MocksHandler) users(w http.ResponseWriter, r *http.Request) {
	n := countParam(r, 50)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	out := make([]*users.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := mocks.User(rng, h.BcryptCost)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MocksHandler) products(w http.ResponseWriter, r *http.Request) {
	n := countParam(r, 50)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	out := make([]*catalog.Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, mocks.Product(rng))
	}
	writeJSON(w, http.StatusOK, out)
}

// generate seeds the database: POST /api/mocks/generate-data?users=N&products=M
func (h *MocksHandler) generate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	nUsers, nProducts := 10, 10
	if raw := q.Get("users"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxMockCount {
			badRequest(w, "users must be between 0 and 500")
			return
		}
		nUsers = n
	}
	if raw := q.Get("products"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxMockCount {
			badRequest(w, "products must be between 0 and 500")
			return
		}
		nProducts = n
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	inserted := struct {
		Users    int `json:"users"`
		Products int `json:"products"`
	}{}

	for i := 0; i < nUsers; i++ {
		u, err := mocks.User(rng, h.BcryptCost)
		if err != nil {
			writeError(w, err)
			return
		}
		if _, err := h.Users.Create(r.Context(), u); err != nil {
			if errors.Is(err, users.ErrEmailTaken) {
				continue // generated address collided, skip it
			}
			writeError(w, err)
			return
		}
		inserted.Users++
	}
	for i := 0; i < nProducts; i++ {
		if _, err := h.Products.Create(r.Context(), mocks.Product(rng)); err != nil {
			writeError(w, err)
			return
		}
		inserted.Products++
	}
	writeJSON(w, http.StatusCreated, inserted)
}
