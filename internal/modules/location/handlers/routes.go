package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all location routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/location", func(r chi.Router) {
		r.Get("/", h.HandleGetLocation)
		r.Delete("/cache", h.HandleClearCache)

		// Browser geolocation relay
		r.Get("/coordinates", h.HandleGetCoordinatesStatus)
		r.Post("/coordinates", h.HandlePostCoordinates)
	})
}
