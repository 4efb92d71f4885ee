package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreno/go-commerce-api/internal/carts"
	"github.com/nmoreno/go-commerce-api/internal/session"
)

type CartService interface {
	Get(ctx context.Context, ownerID string) (*carts.Cart, error)
	Add(ctx context.Context, ownerID, productID string, qty int) (*carts.Cart, error)
	SetQuantity(ctx context.Context, ownerID, productID string, qty int) (*carts.Cart, error)
	Remove(ctx context.Context, ownerID, productID string) (*carts.Cart, error)
	Empty(ctx context.Context, ownerID string) (*carts.Cart, error)
}

type CartsHandler struct {
	Carts CartService
}

func (h *CartsHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(session.RequireAuth)
		r.Get("/api/carts/my-cart", h.get)
		r.Post("/api/carts/products/{pid}", h.add)
		r.Put("/api/carts/products/{pid}", h.setQuantity)
		r.Delete("/api/carts/products/{pid}", h.remove)
		r.Delete("/api/carts/empty", h.empty)
	})
}

func (h *CartsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	c, err := h.Carts.Get(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

// add merges {quantity} into the line for the product in the path.
// An absent body means one unit, matching the original behavior.
func (h *CartsHandler) add(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	req := quantityReq{Quantity: 1}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid json")
			return
		}
	}
	if req.Quantity <= 0 {
		badRequest(w, "quantity must be positive")
		return
	}
	c, err := h.Carts.Add(r.Context(), id.UserID, chi.URLParam(r, "pid"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartsHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	var req quantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Quantity < 0 {
		badRequest(w, "quantity must not be negative")
		return
	}
	c, err := h.Carts.SetQuantity(r.Context(), id.UserID, chi.URLParam(r, "pid"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartsHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	c, err := h.Carts.Remove(r.Context(), id.UserID, chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartsHandler) empty(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	c, err := h.Carts.Empty(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
