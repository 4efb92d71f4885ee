package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/nmoreno/go-commerce-api/internal/postgres"
)

// NewRouter builds the base chi mux. Extra middleware (auth resolution)
// must come in here because chi rejects Use after the first route.
func NewRouter(requestTimeout time.Duration, extra ...func(http.Handler) http.Handler) *chi.Mux {
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(extra...)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// HealthHandler backs the readiness probe: the app is ready only when both
// stores answer.
type HealthHandler struct {
	DB    *postgres.DB
	Redis *redis.Client
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/readyz", h.ready)
}

func (h *HealthHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.DB.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready", "database": "disconnected",
		})
		return
	}
	if err := h.Redis.Ping(ctx).Err(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready", "cache": "disconnected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
