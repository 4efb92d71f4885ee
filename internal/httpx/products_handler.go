package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/nmoreno/go-commerce-api/internal/catalog"
	"github.com/nmoreno/go-commerce-api/internal/lifecycle"
	"github.com/nmoreno/go-commerce-api/internal/session"
)

type ProductStore interface {
	Create(ctx context.Context, p *catalog.Product) (*catalog.Product, error)
	FindByID(ctx context.Context, id string) (*catalog.Product, error)
	List(ctx context.Context, f catalog.Filter, page, limit int) ([]catalog.Product, int64, error)
	Update(ctx context.Context, id string, upd catalog.Update) (*catalog.Product, error)
	SetLifecycle(ctx context.Context, id string, to lifecycle.State) (*catalog.Product, error)
}

type ProductsHandler struct {
	Store ProductStore
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/api/products", h.list)
	r.Get("/api/products/{pid}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(session.RequireAdmin)
		r.Post("/api/products", h.create)
		r.Put("/api/products/{pid}", h.update)
		r.Delete("/api/products/{pid}", h.deactivate)
	})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()
	f := catalog.Filter{
		Category: q.Get("category"),
		Name:     q.Get("name"),
		Sort:     q.Get("sort"),
	}
	items, total, err := h.Store.List(r.Context(), f, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(items, total, page, limit))
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.FindByID(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type productReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Thumbnail   string          `json:"thumbnail"`
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Name == "" || req.Category == "" {
		badRequest(w, "name and category are required")
		return
	}
	if req.Price.IsNegative() || req.Stock < 0 {
		badRequest(w, "price and stock must not be negative")
		return
	}
	p, err := h.Store.Create(r.Context(), &catalog.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Thumbnail:   req.Thumbnail,
		Active:      true,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var upd catalog.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if upd.Price != nil && upd.Price.IsNegative() {
		badRequest(w, "price must not be negative")
		return
	}
	if upd.Stock != nil && *upd.Stock < 0 {
		badRequest(w, "stock must not be negative")
		return
	}
	p, err := h.Store.Update(r.Context(), chi.URLParam(r, "pid"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// deactivate retires the product from the storefront; existing orders
// keep their snapshotted lines.
func (h *ProductsHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.SetLifecycle(r.Context(), chi.URLParam(r, "pid"), lifecycle.Inactive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
