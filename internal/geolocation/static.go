// Package geolocation provides device coordinate sources for GPS-style detection.
package geolocation

import (
	"context"

	"github.com/aristath/loonie/internal/domain"
)

// Static always reports the configured position.
type Static struct {
	coords domain.Coordinates
}

// NewStatic creates a source pinned to lat/lng.
func NewStatic(lat, lng float64) *Static {
	return &Static{coords: domain.Coordinates{Lat: lat, Lng: lng}}
}

// Acquire returns the configured coordinates.
func (s *Static) Acquire(ctx context.Context) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, &domain.PermissionError{Reason: "timeout", Err: err}
	}
	return s.coords, nil
}
