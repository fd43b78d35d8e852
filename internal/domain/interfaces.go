package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateProvider returns the USD to CAD rate (CAD per USD).
// Implementations absorb upstream failures and fall back to a fixed rate, so an
// error here means something unforeseen went wrong.
type RateProvider interface {
	GetRate(ctx context.Context) (decimal.Decimal, error)
}

// LocationResolver determines the visitor's country and currency.
// Detection failures never surface as errors; the static fallback is returned instead.
type LocationResolver interface {
	Resolve(ctx context.Context) (LocationResult, error)
}

// CoordinateSource acquires the device position.
// Denied or unavailable positions are reported as *PermissionError.
type CoordinateSource interface {
	Acquire(ctx context.Context) (Coordinates, error)
}
