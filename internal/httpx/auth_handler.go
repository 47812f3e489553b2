package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-veggie-billing/internal/auth"
	"github.com/ariefcatur/go-veggie-billing/internal/session"
	"github.com/go-chi/chi/v5"
)

type ctxKey struct{}

type AuthHandler struct {
	Sessions *session.Manager
}

type LoginReq struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

type LoginResp struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/login", h.login)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	s, err := h.Sessions.Login(r.Context(), strings.TrimSpace(req.EmployeeID), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResp{Token: s.ID, User: s.User})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if err := h.Sessions.Logout(r.Context(), s.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequireSession resolves the bearer token and puts the session on the
// request context.
func (h *AuthHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeMsg(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		s, err := h.Sessions.Get(r.Context(), strings.TrimSpace(token))
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	s, _ := r.Context().Value(ctxKey{}).(*session.Session)
	return s
}
