package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreno/go-commerce-api/internal/orders"
	"github.com/nmoreno/go-commerce-api/internal/session"
)

type OrderStore interface {
	GetByID(ctx context.Context, id string) (*orders.Order, error)
	List(ctx context.Context, f orders.Filter, page, limit int) ([]orders.Order, int64, error)
	ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]orders.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, to orders.Status) (*orders.Order, error)
}

type PurchaseService interface {
	Purchase(ctx context.Context, ownerID string) (*orders.Order, error)
}

type StatusNotifier interface {
	StatusChanged(ctx context.Context, orderID string, from, to orders.Status)
}

// StatusCache is the projected order-status read/repopulate surface;
// redisx.StatusCache implements it.
type StatusCache interface {
	GetStatus(ctx context.Context, orderID string) (string, error)
	SetStatus(ctx context.Context, orderID, status string) error
}

type OrdersHandler struct {
	Store    OrderStore
	Checkout PurchaseService
	Notify   StatusNotifier
	Cache    StatusCache
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(session.RequireAuth)
		r.Post("/api/orders/purchase", h.purchase)
		r.Get("/api/orders/my-orders", h.listMine)
		r.Get("/api/orders/{oid}", h.get)
		r.Get("/api/orders/{oid}/status", h.status)
	})
	r.Group(func(r chi.Router) {
		r.Use(session.RequireAdmin)
		r.Get("/api/orders", h.list)
		r.Put("/api/orders/{oid}", h.updateStatus)
	})
}

func (h *OrdersHandler) purchase(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	o, err := h.Checkout.Purchase(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	page, limit := pageParams(r)
	items, total, err := h.Store.ListByOwner(r.Context(), id.UserID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(items, total, page, limit))
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	o, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "oid"))
	if err != nil {
		writeError(w, err)
		return
	}
	if o.OwnerID != id.UserID && !id.IsAdmin() {
		// Hide other users' orders entirely rather than confirm they exist.
		writeError(w, orders.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// status serves from the Redis projection when warm, otherwise falls
// back to Postgres and repopulates the cache. The cache entry carries no
// owner, so only admins take the fast path; owners always pass through
// the ownership check.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	oid := chi.URLParam(r, "oid")

	if h.Cache != nil && id.IsAdmin() {
		raw, err := h.Cache.GetStatus(r.Context(), oid)
		if err != nil {
			writeError(w, err)
			return
		}
		if raw != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(raw))
			return
		}
	}

	o, err := h.Store.GetByID(r.Context(), oid)
	if err != nil {
		writeError(w, err)
		return
	}
	if o.OwnerID != id.UserID && !id.IsAdmin() {
		writeError(w, orders.ErrNotFound)
		return
	}
	if h.Cache != nil {
		_ = h.Cache.SetStatus(r.Context(), oid, string(o.Status))
	}
	writeJSON(w, http.StatusOK, map[string]orders.Status{"status": o.Status})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()
	f := orders.Filter{
		Status:  orders.Status(q.Get("status")),
		OwnerID: q.Get("user"),
	}
	if f.Status != "" && !orders.ValidStatus(f.Status) {
		badRequest(w, "unknown status")
		return
	}
	items, total, err := h.Store.List(r.Context(), f, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(items, total, page, limit))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status orders.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	oid := chi.URLParam(r, "oid")
	before, err := h.Store.GetByID(r.Context(), oid)
	if err != nil {
		writeError(w, err)
		return
	}
	o, err := h.Store.UpdateStatus(r.Context(), oid, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Notify != nil {
		h.Notify.StatusChanged(r.Context(), o.ID, before.Status, o.Status)
	}
	writeJSON(w, http.StatusOK, o)
}
