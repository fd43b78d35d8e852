package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all currency routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/currency", func(r chi.Router) {
		// Preference
		r.Get("/info", h.HandleGetInfo)
		r.Put("/manual", h.HandleSetManual)
		r.Delete("/manual", h.HandleClearManual)

		// Conversion
		r.Post("/convert", h.HandleConvert)
		r.Post("/listings/convert", h.HandleConvertListings)
		r.Post("/breakdown", h.HandleBreakdown)

		// Rate diagnostics
		r.Get("/rate", h.HandleGetRate)
		r.Delete("/rate/cache", h.HandleClearRateCache)
	})
}
