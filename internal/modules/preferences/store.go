package preferences

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/loonie/internal/domain"
	"github.com/rs/zerolog"
)

// Store merges the detected location with an optional manual override.
// It holds no network logic; detection results are pushed in by the caller.
type Store struct {
	mu       sync.RWMutex
	auto     domain.LocationResult
	seeded   bool
	override *domain.Currency
	log      zerolog.Logger
}

// NewStore creates an empty preference store
func NewStore(log zerolog.Logger) *Store {
	return &Store{
		log: log.With().Str("component", "currency_preferences").Logger(),
	}
}

// SetManualCurrency pins the display currency. Only USD and CAD are accepted;
// anything else returns domain.ErrUnsupportedCurrency and leaves state untouched.
func (s *Store) SetManualCurrency(code string) (domain.Currency, error) {
	currency, err := domain.ParseCurrency(code)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.override = &currency
	s.mu.Unlock()

	s.log.Info().Str("currency", string(currency)).Msg("Manual currency selected")
	return currency, nil
}

// ClearManualCurrency reverts to the detected currency.
func (s *Store) ClearManualCurrency() {
	s.mu.Lock()
	s.override = nil
	s.mu.Unlock()

	s.log.Info().Msg("Manual currency cleared")
}

// SetAutoDetected records the latest detection result.
func (s *Store) SetAutoDetected(loc domain.LocationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auto = loc
	s.seeded = true
}

// Detect resolves the location and records it.
func (s *Store) Detect(ctx context.Context, resolver domain.LocationResolver) (domain.LocationResult, error) {
	loc, err := resolver.Resolve(ctx)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("failed to resolve location: %w", err)
	}
	s.SetAutoDetected(loc)
	return loc, nil
}

// Preference returns a snapshot for conversion.
func (s *Store) Preference() domain.CurrencyPreference {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pref := domain.CurrencyPreference{AutoDetected: s.auto}
	if s.override != nil {
		c := *s.override
		pref.ManualOverride = &c
	}
	return pref
}

// Info derives the UI view of the current preference. It has no side effects.
func (s *Store) Info() Info {
	s.mu.RLock()
	seeded := s.seeded
	s.mu.RUnlock()

	pref := s.Preference()
	effective := pref.Effective()

	auto := pref.AutoDetected.Currency
	if auto == "" {
		auto = domain.CurrencyUSD
	}

	stripeCountry := "US"
	if pref.AutoDetected.IsCanadian() {
		stripeCountry = "CA"
	}

	info := Info{
		EffectiveCurrency:    effective,
		EffectiveIsCanadian:  effective == domain.CurrencyCAD,
		IsManualSelection:    pref.ManualOverride != nil,
		AutoDetectedCurrency: auto,
		Symbol:               effective.Symbol(),
		DetectedCountry:      pref.AutoDetected.CountryCode,
		StripeCountry:        stripeCountry,
		DetectionMethod:      pref.AutoDetected.Method,
		IsLoading:            !seeded,
	}
	if pref.ManualOverride != nil {
		info.SelectedCurrency = *pref.ManualOverride
	}

	return info
}
