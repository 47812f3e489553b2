package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logger.RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Mount registers login routes publicly and everything else behind a session.
func Mount(r chi.Router, auth *AuthHandler, shop *ShopHandler, admin *AdminHandler) {
	auth.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)
		r.Post("/logout", auth.logout)
		shop.Register(r)
		admin.Register(r)
	})
}
