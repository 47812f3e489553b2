package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-veggie-billing/internal/auth"
	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/ariefcatur/go-veggie-billing/internal/checkout"
	"github.com/ariefcatur/go-veggie-billing/internal/session"
	"github.com/ariefcatur/go-veggie-billing/internal/store"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps domain errors to status codes. Checkout failures are matched
// before validation errors because they wrap them.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, session.ErrUnknownSession):
		code = http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, checkout.ErrEncodingFailure):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrBillCreationFailure):
		code = http.StatusBadGateway
	case errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, checkout.ErrCheckoutInProgress),
		errors.Is(err, checkout.ErrInsufficientStock),
		errors.Is(err, session.ErrEmptyCart):
		code = http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidVegetable),
		errors.Is(err, billing.ErrEmptyBill),
		errors.Is(err, billing.ErrInvalidItem),
		errors.Is(err, billing.ErrInconsistentTotal):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		writeMsg(w, code, "internal error")
		return
	}
	writeMsg(w, code, err.Error())
}
