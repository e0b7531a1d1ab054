// Package http provides the HTTP delivery layer of the view counter.
// It serves the HTML form with its CSV export, the JSON API used for
// debugging and history, and the operational endpoints.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter initializes and returns a new Chi router configured with middleware and routes.
func NewRouter(logger *httplog.Logger, viewsUseCase viewsUseCase) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)

	form := newFormHandler(viewsUseCase)
	r.Get("/", form.showForm)
	r.Post("/", form.submitForm)
	r.Post("/download", form.download)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		validate := validator.New()
		h := newViewsHandler(viewsUseCase, validate)

		r.Route("/views", func(r chi.Router) {
			r.Get("/", h.lookupView)
			r.Post("/", h.lookupViews)
		})

		r.Route("/lookups", func(r chi.Router) {
			r.Get("/", h.listLookups)
			r.Get("/{id}", h.getLookup)
		})
	})

	return r
}
