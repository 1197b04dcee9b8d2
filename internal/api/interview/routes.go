package interview

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers interview session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/interview-session", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Get("/{id}", h.GetSession)
		r.Delete("/{id}", h.Quit)
		r.Post("/{id}/advance", h.Advance)
		r.Post("/{id}/frame", h.PushFrame)
		r.Post("/{id}/signal", h.Signal)
		r.Get("/{id}/report", h.GetReport)
	})
}
