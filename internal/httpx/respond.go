package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/nmoreno/go-commerce-api/internal/carts"
	"github.com/nmoreno/go-commerce-api/internal/catalog"
	"github.com/nmoreno/go-commerce-api/internal/checkout"
	"github.com/nmoreno/go-commerce-api/internal/lifecycle"
	"github.com/nmoreno/go-commerce-api/internal/orders"
	"github.com/nmoreno/go-commerce-api/internal/users"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps domain errors onto HTTP statuses. Storage failures fall
// through to 500 and are logged; their details never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var stockErr *catalog.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
		return
	}
	var inactiveErr *catalog.InactiveProductError
	if errors.As(err, &inactiveErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      inactiveErr.Error(),
			"product_id": inactiveErr.ProductID,
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		badRequest(w, err.Error())
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, carts.ErrNotFound),
		errors.Is(err, carts.ErrLineNotFound),
		errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, carts.ErrVersionConflict),
		errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, users.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("httpx: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
