package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "aging-dashboard/docs"
	"aging-dashboard/internal/api/handler"
	"aging-dashboard/pkg/router"
)

// RegisterRoutes wires the dashboard API onto r. metrics serves /metrics and
// may be nil.
func RegisterRoutes(r *router.Router, h *handler.DashboardHandler, metrics http.Handler) {
	r.GET("/health", h.Health)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.GET("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(render.SetContentType(render.ContentTypeJSON))

		api.Post("/sessions", h.Upload)
		api.Get("/sessions", h.ListSessions)

		api.Route("/sessions/{id}", func(s chi.Router) {
			s.Get("/", h.GetSession)
			s.Delete("/", h.CloseSession)

			s.Get("/filters", h.GetFilters)
			s.Put("/filters", h.SetFilter)
			s.Delete("/filters", h.ResetFilters)

			s.Post("/segment", h.SelectSegment)
			s.Get("/dashboard", h.GetDashboard)
			s.Get("/rows", h.GetRows)

			s.Get("/export.csv", h.ExportCSV)
			s.Get("/export.xlsx", h.ExportXLSX)
		})
	})
}
