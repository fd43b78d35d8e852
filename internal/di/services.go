// Package di provides dependency injection for clients and services.
package di

import (
	"fmt"

	"github.com/aristath/loonie/internal/clients"
	"github.com/aristath/loonie/internal/clients/countryis"
	"github.com/aristath/loonie/internal/clients/exchangerate"
	"github.com/aristath/loonie/internal/clients/mapbox"
	"github.com/aristath/loonie/internal/config"
	"github.com/aristath/loonie/internal/geolocation"
	"github.com/aristath/loonie/internal/metrics"
	"github.com/aristath/loonie/internal/modules/breakdown"
	"github.com/aristath/loonie/internal/modules/preferences"
	"github.com/aristath/loonie/internal/services"
	"github.com/rs/zerolog"
)

// InitializeServices creates outbound clients and the currency services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	metrics.SetEnabled(cfg.MetricsEnabled)

	// ==========================================
	// Clients
	// ==========================================
	container.HTTPClient = clients.NewHTTPClient(cfg.HTTPClient.RequestsPerSecond, cfg.HTTPClient.Timeout)
	container.ExchangeRateClient = exchangerate.NewClient(cfg.Rates.APIURL, container.HTTPClient, log)
	container.MapboxClient = mapbox.NewClient(cfg.Location.MapboxURL, cfg.Location.MapboxToken, container.HTTPClient, log)
	container.CountryClient = countryis.NewClient(cfg.Location.IPGeoURL, container.HTTPClient, log)

	// ==========================================
	// Coordinate source for GPS detection
	// ==========================================
	switch cfg.Location.CoordinateSource {
	case config.CoordinateSourceStatic:
		container.CoordinateSource = geolocation.NewStatic(cfg.Location.Latitude, cfg.Location.Longitude)
	case config.CoordinateSourceRelay:
		relay := geolocation.NewRelay(0, container.Clock, log)
		container.CoordinateRelay = relay
		container.CoordinateSource = relay
	}

	// GPS needs a geocoder; without a Mapbox token it is skipped entirely
	var geocoder services.ReverseGeocoder
	if container.MapboxClient.Configured() {
		geocoder = container.MapboxClient
	} else if container.CoordinateSource != nil {
		log.Warn().Msg("MAPBOX_ACCESS_TOKEN not set, GPS detection disabled")
	}

	// ==========================================
	// Services
	// ==========================================
	container.ExchangeRateService = services.NewExchangeRateCacheService(
		container.ExchangeRateClient,
		container.RateStore,
		container.Clock,
		services.ExchangeRateCacheConfig{
			TTL:            cfg.Rates.TTL,
			FallbackRate:   cfg.Rates.FallbackRate,
			FallbackSticky: cfg.Rates.FallbackSticky,
		},
		log,
	)

	container.LocationService = services.NewLocationService(
		container.CoordinateSource,
		geocoder,
		container.CountryClient,
		container.LocationStore,
		container.Clock,
		services.LocationServiceConfig{
			TTL:        cfg.Location.TTL,
			GPSTimeout: cfg.Location.GPSTimeout,
		},
		log,
	)

	container.PriceConversionService = services.NewPriceConversionService(container.ExchangeRateService, log)
	container.PreferenceStore = preferences.NewStore(log)
	container.BreakdownEstimator = breakdown.NewEstimator(
		cfg.TransactionProcesses,
		container.PriceConversionService,
		container.Clock,
		log,
	)

	log.Info().
		Str("coordinate_source", cfg.Location.CoordinateSource).
		Bool("gps_enabled", geocoder != nil && container.CoordinateSource != nil).
		Msg("Services initialized")

	return nil
}
