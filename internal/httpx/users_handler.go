package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreno/go-commerce-api/internal/lifecycle"
	"github.com/nmoreno/go-commerce-api/internal/session"
	"github.com/nmoreno/go-commerce-api/internal/users"
)

type UserStore interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
	List(ctx context.Context, f users.Filter, page, limit int) ([]users.User, int64, error)
	Update(ctx context.Context, id string, upd users.Update) (*users.User, error)
	SetRole(ctx context.Context, id string, role users.Role) (*users.User, error)
	SetLifecycle(ctx context.Context, id string, to lifecycle.State) (*users.User, error)
}

type UsersHandler struct {
	Store UserStore
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(session.RequireAuth)
		r.Get("/api/users/profile", h.profile)
		r.Put("/api/users/profile", h.updateProfile)
	})
	r.Group(func(r chi.Router) {
		r.Use(session.RequireAdmin)
		r.Get("/api/users", h.list)
		r.Get("/api/users/{uid}", h.get)
		r.Put("/api/users/{uid}", h.update)
		r.Put("/api/users/{uid}/role", h.setRole)
		r.Delete("/api/users/{uid}", h.deactivate)
	})
}

func (h *UsersHandler) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	u, err := h.Store.GetByID(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	var upd users.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		badRequest(w, "invalid json")
		return
	}
	u, err := h.Store.Update(r.Context(), id.UserID, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	f := users.Filter{
		Role:  users.Role(r.URL.Query().Get("role")),
		Email: r.URL.Query().Get("email"),
	}
	items, total, err := h.Store.List(r.Context(), f, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(items, total, page, limit))
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	var upd users.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		badRequest(w, "invalid json")
		return
	}
	u, err := h.Store.Update(r.Context(), chi.URLParam(r, "uid"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) setRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role users.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Role != users.RoleUser && req.Role != users.RoleAdmin {
		badRequest(w, "role must be user or admin")
		return
	}
	u, err := h.Store.SetRole(r.Context(), chi.URLParam(r, "uid"), req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// deactivate is a soft delete: the account stays on record but can no
// longer log in or appear in listings.
func (h *UsersHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.SetLifecycle(r.Context(), chi.URLParam(r, "uid"), lifecycle.Inactive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
