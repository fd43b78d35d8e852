package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/loonie/internal/cache"
	"github.com/aristath/loonie/internal/domain"
	"github.com/aristath/loonie/internal/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// LocationCacheKey is the cache entry holding the detected location.
const LocationCacheKey = "detectedUserLocation"

// ReverseGeocoder maps a position to an ISO country code.
type ReverseGeocoder interface {
	ReverseCountry(ctx context.Context, coords domain.Coordinates) (string, error)
}

// IPLocator maps this host's public IP to an ISO country code.
type IPLocator interface {
	LookupCountry(ctx context.Context) (string, error)
}

// LocationServiceConfig tunes detection.
type LocationServiceConfig struct {
	TTL        time.Duration
	GPSTimeout time.Duration
}

// cachedLocation is the structure stored in the cache
type cachedLocation struct {
	Data      domain.LocationResult `json:"data"`
	Timestamp time.Time             `json:"timestamp"`
}

// LocationService detects the visitor's country with a fallback chain:
// 1. Fresh cached result
// 2. Device coordinates reverse geocoded through Mapbox
// 3. IP geolocation
// 4. Static US fallback
type LocationService struct {
	coords   domain.CoordinateSource
	geocoder ReverseGeocoder
	ip       IPLocator
	store    cache.Store
	clock    clockwork.Clock
	cfg      LocationServiceConfig
	group    singleflight.Group
	log      zerolog.Logger
}

// NewLocationService creates a new location service.
// coords and geocoder are optional; GPS detection is skipped unless both are set.
func NewLocationService(
	coords domain.CoordinateSource,
	geocoder ReverseGeocoder,
	ip IPLocator,
	store cache.Store,
	clock clockwork.Clock,
	cfg LocationServiceConfig,
	log zerolog.Logger,
) *LocationService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.GPSTimeout <= 0 {
		cfg.GPSTimeout = 10 * time.Second
	}
	return &LocationService{
		coords:   coords,
		geocoder: geocoder,
		ip:       ip,
		store:    store,
		clock:    clock,
		cfg:      cfg,
		log:      log.With().Str("service", "location").Logger(),
	}
}

// Resolve returns the visitor's location. Detection failures never surface;
// the only error is the caller's own context ending while it waits.
func (s *LocationService) Resolve(ctx context.Context) (domain.LocationResult, error) {
	if loc, ok := s.fresh(ctx); ok {
		return loc, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(LocationCacheKey, func() (interface{}, error) {
		return s.detect(detached), nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.LocationResult), nil
	case <-ctx.Done():
		return domain.LocationResult{}, fmt.Errorf("waiting for location: %w", ctx.Err())
	}
}

// detect runs the strategies in order and caches whichever answers first.
func (s *LocationService) detect(ctx context.Context) (result domain.LocationResult) {
	if loc, ok := s.fresh(ctx); ok {
		return loc
	}

	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Interface("panic", p).Msg("Location detection panicked, using fallback")
			result = domain.FallbackLocation(s.clock.Now())
			s.save(ctx, result)
		}
	}()

	country, err := s.detectGPS(ctx)
	if err == nil {
		return s.settle(ctx, country, domain.MethodGPS)
	}
	if !errors.Is(err, errGPSUnavailable) {
		metrics.RecordDetectionFailure("gps")
		s.log.Warn().Err(err).Msg("GPS detection failed, trying IP")
	}

	country, err = s.detectIP(ctx)
	if err == nil {
		return s.settle(ctx, country, domain.MethodIP)
	}
	metrics.RecordDetectionFailure("ip")
	s.log.Warn().Err(err).Msg("IP detection failed, using fallback")

	result = domain.FallbackLocation(s.clock.Now())
	s.save(ctx, result)
	metrics.RecordLocationDetection(string(domain.MethodFallback))
	return result
}

var errGPSUnavailable = errors.New("gps detection not configured")

func (s *LocationService) detectGPS(ctx context.Context) (string, error) {
	if s.coords == nil || s.geocoder == nil {
		return "", errGPSUnavailable
	}

	gpsCtx, cancel := context.WithTimeout(ctx, s.cfg.GPSTimeout)
	defer cancel()

	coords, err := s.coords.Acquire(gpsCtx)
	if err != nil {
		var permErr *domain.PermissionError
		if !errors.As(err, &permErr) {
			err = &domain.PermissionError{Reason: "unavailable", Err: err}
		}
		return "", err
	}

	return s.geocoder.ReverseCountry(ctx, coords)
}

func (s *LocationService) detectIP(ctx context.Context) (string, error) {
	if s.ip == nil {
		return "", fmt.Errorf("no IP locator configured")
	}
	return s.ip.LookupCountry(ctx)
}

func (s *LocationService) settle(ctx context.Context, country string, method domain.DetectionMethod) domain.LocationResult {
	result := domain.NewLocationResult(country, method, s.clock.Now())
	s.save(ctx, result)
	metrics.RecordLocationDetection(string(method))

	s.log.Info().
		Str("country", result.CountryCode).
		Str("currency", string(result.Currency)).
		Str("method", string(method)).
		Msg("Detected location")

	return result
}

// fresh returns the cached location when it is younger than the TTL.
// Cache errors are logged and treated as a miss.
func (s *LocationService) fresh(ctx context.Context) (domain.LocationResult, bool) {
	if s.store == nil {
		return domain.LocationResult{}, false
	}

	var cached cachedLocation
	found, err := cache.GetJSON(ctx, s.store, LocationCacheKey, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read cached location")
		return domain.LocationResult{}, false
	}
	if !found || s.clock.Since(cached.Timestamp) >= s.cfg.TTL {
		return domain.LocationResult{}, false
	}
	return cached.Data, true
}

func (s *LocationService) save(ctx context.Context, loc domain.LocationResult) {
	if s.store == nil {
		return
	}
	entry := cachedLocation{Data: loc, Timestamp: s.clock.Now()}
	if err := cache.SetJSON(ctx, s.store, LocationCacheKey, entry, s.cfg.TTL); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache location")
	}
}

// ClearCache forgets the detected location so the next Resolve detects again.
func (s *LocationService) ClearCache(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, LocationCacheKey); err != nil {
		return fmt.Errorf("failed to clear location cache: %w", err)
	}
	s.log.Info().Msg("Location cache cleared")
	return nil
}
