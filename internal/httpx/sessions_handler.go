package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreno/go-commerce-api/internal/session"
	"github.com/nmoreno/go-commerce-api/internal/users"
)

type SessionUserStore interface {
	Create(ctx context.Context, u *users.User) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByID(ctx context.Context, id string) (*users.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, id session.Identity) (string, error)
	Delete(ctx context.Context, token string) error
}

type SessionsHandler struct {
	Users      SessionUserStore
	Sessions   SessionStore
	BcryptCost int
}

func (h *SessionsHandler) Register(r chi.Router) {
	r.Post("/api/sessions/register", h.register)
	r.Post("/api/sessions/login", h.login)
	r.With(session.RequireAuth).Post("/api/sessions/logout", h.logout)
	r.With(session.RequireAuth).Get("/api/sessions/current", h.current)
}

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (h *SessionsHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		badRequest(w, "first_name, last_name, email and password are required")
		return
	}

	hash, err := users.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := h.Users.Create(r.Context(), &users.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         users.RoleUser,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *SessionsHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	u, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeError(w, err)
		return
	}
	if !u.Active || !u.CheckPassword(req.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := h.Sessions.Create(r.Context(), session.Identity{UserID: u.ID, Role: u.Role})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
}

func (h *SessionsHandler) logout(w http.ResponseWriter, r *http.Request) {
	token := session.TokenFromRequest(r)
	if token != "" {
		if err := h.Sessions.Delete(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *SessionsHandler) current(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	u, err := h.Users.GetByID(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
