package domain

import "time"

// DetectionMethod records which strategy produced a LocationResult.
type DetectionMethod string

const (
	MethodGPS      DetectionMethod = "gps"
	MethodIP       DetectionMethod = "ip"
	MethodFallback DetectionMethod = "fallback"
)

// Coordinates is a device position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationResult is the outcome of country detection.
type LocationResult struct {
	CountryCode string          `json:"countryCode"`
	Currency    Currency        `json:"currency"`
	Symbol      string          `json:"currencySymbol"`
	Method      DetectionMethod `json:"method"`
	ResolvedAt  time.Time       `json:"resolvedAt"`
}

// NewLocationResult derives currency and symbol from the country code.
func NewLocationResult(countryCode string, method DetectionMethod, resolvedAt time.Time) LocationResult {
	currency := CurrencyForCountry(countryCode)
	return LocationResult{
		CountryCode: countryCode,
		Currency:    currency,
		Symbol:      currency.Symbol(),
		Method:      method,
		ResolvedAt:  resolvedAt,
	}
}

// FallbackLocation is used when every detection strategy failed.
func FallbackLocation(resolvedAt time.Time) LocationResult {
	return NewLocationResult("US", MethodFallback, resolvedAt)
}

// IsCanadian reports whether the detected country is Canada.
func (l LocationResult) IsCanadian() bool {
	return l.CountryCode == "CA"
}

// CurrencyPreference merges automatic detection with an optional manual override.
type CurrencyPreference struct {
	AutoDetected   LocationResult `json:"autoDetected"`
	ManualOverride *Currency      `json:"manualOverride,omitempty"`
}

// Effective returns the currency prices should be shown in.
func (p CurrencyPreference) Effective() Currency {
	if p.ManualOverride != nil {
		return *p.ManualOverride
	}
	if p.AutoDetected.Currency == "" {
		return CurrencyUSD
	}
	return p.AutoDetected.Currency
}

// PreferenceFor builds a preference that always resolves to the given currency.
func PreferenceFor(c Currency) CurrencyPreference {
	return CurrencyPreference{ManualOverride: &c}
}
