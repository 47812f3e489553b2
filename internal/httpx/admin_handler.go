package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/ariefcatur/go-veggie-billing/internal/admin"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	Admin *admin.Service
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/vegetables", h.listVegetables)
		r.Post("/vegetables", h.addVegetable)
		r.Put("/vegetables/{id}", h.updateVegetable)
		r.Delete("/vegetables/{id}", h.deleteVegetable)
		r.Get("/bills", h.listBills)
		r.Get("/bills/{id}", h.getBill)
		r.Get("/summary", h.summary)
	})
}

func (h *AdminHandler) listVegetables(w http.ResponseWriter, r *http.Request) {
	vegs, err := h.Admin.ListVegetables(r.Context(), sessionFrom(r).User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vegs)
}

func (h *AdminHandler) addVegetable(w http.ResponseWriter, r *http.Request) {
	var f catalog.Fields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.Admin.AddVegetable(r.Context(), sessionFrom(r).User, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *AdminHandler) updateVegetable(w http.ResponseWriter, r *http.Request) {
	var f catalog.Fields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	v := catalog.Vegetable{ID: chi.URLParam(r, "id"), Fields: f}
	if err := h.Admin.UpdateVegetable(r.Context(), sessionFrom(r).User, v); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *AdminHandler) deleteVegetable(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteVegetable(r.Context(), sessionFrom(r).User, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Admin.ListBills(r.Context(), sessionFrom(r).User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *AdminHandler) getBill(w http.ResponseWriter, r *http.Request) {
	b, err := h.Admin.GetBill(r.Context(), sessionFrom(r).User, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *AdminHandler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Admin.Summary(r.Context(), sessionFrom(r).User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
