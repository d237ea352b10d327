// Package httpapi assembles the HTTP surface: public authentication routes,
// operational endpoints and the bearer-protected identity lifecycle.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "rollcall/internal/auth/handler"
	identityhandler "rollcall/internal/identity/handler"
	"rollcall/internal/platform/middleware"
)

// NewRouter wires all endpoints. The auth, health and metrics routes are
// public; everything under /identities requires a valid bearer token.
func NewRouter(auth *authhandler.Handler, identities *identityhandler.Handler,
	verifier middleware.TokenVerifier, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Group(func(r chi.Router) {
		auth.Register(r)
		r.Get("/healthz", handleHealth)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier, logger))
		identities.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
