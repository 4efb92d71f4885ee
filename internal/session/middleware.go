package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey struct{}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok
}

// WithIdentity is used by handler tests to inject a caller identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Resolver is the session lookup the middleware needs.
type Resolver interface {
	Get(ctx context.Context, token string) (*Identity, error)
}

// Authenticate resolves a Bearer token into a request identity. Requests
// without a valid token pass through unauthenticated; the Require*
// middlewares decide whether that is acceptable.
func Authenticate(r Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			token := TokenFromRequest(req)
			if token != "" {
				if id, err := r.Get(req.Context(), token); err == nil {
					req = req.WithContext(WithIdentity(req.Context(), id))
				}
			}
			next.ServeHTTP(w, req)
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, ok := FromContext(req.Context()); !ok {
			deny(w, http.StatusUnauthorized, "please log in")
			return
		}
		next.ServeHTTP(w, req)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id, ok := FromContext(req.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "please log in")
			return
		}
		if !id.IsAdmin() {
			deny(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, req)
	})
}

// TokenFromRequest extracts the opaque Bearer token, if any.
func TokenFromRequest(req *http.Request) string {
	h := req.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
