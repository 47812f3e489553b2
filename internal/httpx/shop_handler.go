package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/cart"
	"github.com/ariefcatur/go-veggie-billing/internal/checkout"
	"github.com/ariefcatur/go-veggie-billing/internal/screenshot"
	"github.com/go-chi/chi/v5"
)

// ShopHandler serves the customer side: catalog, cart and checkout.
type ShopHandler struct {
	MaxUploadBytes int64
}

type SetQuantityReq struct {
	Quantity json.RawMessage `json:"quantity"`
}

type CheckoutResp struct {
	Stage   checkout.Stage `json:"stage"`
	Pending bool           `json:"pending"`
	Cart    cart.View      `json:"cart"`
	Bill    *billing.Bill  `json:"bill,omitempty"`
}

func (h *ShopHandler) Register(r chi.Router) {
	r.Get("/catalog", h.browse)
	r.Get("/categories", h.categories)

	r.Get("/cart", h.viewCart)
	r.Put("/cart/{id}", h.setQuantity)
	r.Post("/cart/{id}/add", h.cartOp("add"))
	r.Post("/cart/{id}/increment", h.cartOp("increment"))
	r.Post("/cart/{id}/decrement", h.cartOp("decrement"))

	r.Get("/checkout", h.checkoutState)
	r.Post("/checkout/place", h.place)
	r.Post("/checkout/back", h.stageOp(func(s stageMover) error { return s.Back() }))
	r.Post("/checkout/settings", h.stageOp(func(s stageMover) error { return s.OpenSettings() }))
	r.Post("/checkout/settings/close", h.stageOp(func(s stageMover) error { return s.CloseSettings() }))
	r.Post("/checkout/confirm", h.confirm)
}

func (h *ShopHandler) browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := sessionFrom(r).Browse(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShopHandler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := sessionFrom(r).Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *ShopHandler) viewCart(w http.ResponseWriter, r *http.Request) {
	v, err := sessionFrom(r).View(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// setQuantity accepts a JSON number or string. Anything unparseable counts
// as zero and removes the line.
func (h *ShopHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	qty := cart.ParseQuantity(strings.Trim(string(req.Quantity), `"`))
	v, err := sessionFrom(r).SetQuantity(r.Context(), chi.URLParam(r, "id"), qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *ShopHandler) cartOp(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, id := sessionFrom(r), chi.URLParam(r, "id")
		var (
			v   cart.View
			err error
		)
		switch op {
		case "add":
			v, err = s.Add(r.Context(), id)
		case "increment":
			v, err = s.Increment(r.Context(), id)
		default:
			v, err = s.Decrement(r.Context(), id)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (h *ShopHandler) checkoutState(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	v, err := s.View(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := CheckoutResp{Stage: s.Stage(), Pending: s.Pending(), Cart: v}
	if b, ok := s.FinalBill(); ok {
		resp.Bill = &b
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ShopHandler) place(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).PlaceOrder(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.checkoutState(w, r)
}

type stageMover interface {
	Back() error
	OpenSettings() error
	CloseSettings() error
}

func (h *ShopHandler) stageOp(move func(stageMover) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := move(sessionFrom(r)); err != nil {
			writeError(w, err)
			return
		}
		h.checkoutState(w, r)
	}
}

// confirm reads the payment screenshot from the multipart field "screenshot".
func (h *ShopHandler) confirm(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = screenshot.DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeMsg(w, http.StatusRequestEntityTooLarge, "screenshot is too large")
			return
		}
		writeMsg(w, http.StatusBadRequest, "expected multipart form with a screenshot")
		return
	}
	f, _, err := r.FormFile("screenshot")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "screenshot is required")
		return
	}
	defer f.Close()

	b, err := sessionFrom(r).ConfirmOrder(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}
