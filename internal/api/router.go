package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the HTTP routes.
func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(PrometheusMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// CRM webhooks authenticate with a shared token; providers cannot be
	// configured to send bearer headers.
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(WebhookToken(s.config.WebhookToken))
		r.Post("/hubspot", s.handleHubSpotWebhook)
		r.Post("/salesforce", s.handleSalesforceWebhook)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JWTAuth(s.jwt))

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/detect", s.handleDetectJob)
			r.Post("/enqueue", s.handleEnqueueJob)
			r.Post("/dispatch", s.handleDispatchJob)
			r.Post("/refresh", s.handleRefreshJob)
		})

		r.Post("/import/hubspot", s.handleImportHubSpot)
		r.Post("/send/{provider}", s.handleSendMail)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(w, map[string]string{"status": "healthy"})
}
