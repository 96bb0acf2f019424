package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmeshcher/shortlink/internal/middleware"
	"github.com/mmeshcher/shortlink/internal/models"
)

func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Gzip)

	r.Get("/", h.IndexHandler)
	r.Post("/", h.ShortenHandler)
	r.Get("/ping", h.PingHandler)
	r.Get("/system/health", h.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/urls", func(r chi.Router) {
		r.Get("/", h.ListHandler)
		r.Post("/", h.CreateHandler)
		r.Post("/batch", h.ShortenBatchHandler)
		r.Put("/activate/{code}", h.ActivateHandler)
		r.Put("/deactivate/{code}", h.DeactivateHandler)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", h.GetHandler)
			r.Put("/", h.UpdateHandler)
			r.Delete("/", h.DeleteHandler)
		})
	})

	r.Get("/{code}", h.RedirectHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusNotFound, models.ErrorResponse{Detail: "Not Found"})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Detail: "Method Not Allowed"})
	})

	return r
}
