// Package handlers provides HTTP handlers for location detection.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/loonie/internal/domain"
	"github.com/aristath/loonie/internal/modules/preferences"
	"github.com/rs/zerolog"
)

// LocationService resolves and caches the user's country
type LocationService interface {
	domain.LocationResolver
	ClearCache(ctx context.Context) error
}

// CoordinateRelay accepts positions reported by the browser
type CoordinateRelay interface {
	Push(coords domain.Coordinates)
	Deny(reason string)
	Waiting() int
}

// Handler handles location HTTP requests
type Handler struct {
	locations   LocationService
	relay       CoordinateRelay
	preferences *preferences.Store
	log         zerolog.Logger
}

// NewHandler creates a new location handler.
// relay may be nil when coordinates come from a fixed source.
func NewHandler(
	locations LocationService,
	relay CoordinateRelay,
	prefs *preferences.Store,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		locations:   locations,
		relay:       relay,
		preferences: prefs,
		log:         log.With().Str("handler", "location").Logger(),
	}
}

// CoordinatesRequest is a browser geolocation report.
// Denied marks a refused permission prompt; Lat and Lng are ignored then.
type CoordinatesRequest struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Denied bool     `json:"denied"`
	Reason string   `json:"reason"`
}

// HandleGetLocation handles GET /api/location
func (h *Handler) HandleGetLocation(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		if err := h.locations.ClearCache(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Failed to clear location cache before refresh")
		}
	}

	loc, err := h.locations.Resolve(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve location")
		http.Error(w, "Failed to resolve location", http.StatusServiceUnavailable)
		return
	}

	if h.preferences != nil {
		h.preferences.SetAutoDetected(loc)
	}

	h.writeJSON(w, http.StatusOK, loc)
}

// HandlePostCoordinates handles POST /api/location/coordinates
func (h *Handler) HandlePostCoordinates(w http.ResponseWriter, r *http.Request) {
	if h.relay == nil {
		http.Error(w, "Coordinate reporting is not enabled", http.StatusConflict)
		return
	}

	var req CoordinatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Denied {
		reason := req.Reason
		if reason == "" {
			reason = "permission denied"
		}
		h.relay.Deny(reason)
		h.writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"accepted": true,
			"denied":   true,
		})
		return
	}

	if req.Lat == nil || req.Lng == nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}
	coords := domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	if coords.Lat < -90 || coords.Lat > 90 || coords.Lng < -180 || coords.Lng > 180 {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}

	h.relay.Push(coords)
	h.log.Debug().Msg("Coordinates received")

	h.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": true,
		"denied":   false,
	})
}

// HandleGetCoordinatesStatus handles GET /api/location/coordinates
func (h *Handler) HandleGetCoordinatesStatus(w http.ResponseWriter, r *http.Request) {
	waiting := 0
	if h.relay != nil {
		waiting = h.relay.Waiting()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": h.relay != nil,
		"waiting": waiting,
	})
}

// HandleClearCache handles DELETE /api/location/cache
func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.locations.ClearCache(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear location cache")
		http.Error(w, "Failed to clear location cache", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
