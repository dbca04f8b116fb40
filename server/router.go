package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes constructs the HTTP router for the integration surface.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(a.Logger))
	r.Use(RecoveryMiddleware(a.Logger))
	if !a.Config.Server.DevMode {
		r.Use(SecurityHeadersMiddleware())
	}

	r.Get("/login", a.handleLogin)
	r.Get("/callback", a.handleCallback)

	r.Post("/webhooks/helpdesk", a.handleWebhook)

	r.Post("/tokens/validate", a.handleValidate)
	r.Post("/tokens/revoke", a.handleRevoke)
	r.Post("/tokens/refresh", a.handleRefresh)

	r.Get("/healthz", a.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
