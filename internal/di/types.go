/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to handlers for access to services.
 */
package di

import (
	"io"
	"net/http"

	"github.com/aristath/loonie/internal/cache"
	"github.com/aristath/loonie/internal/clientdata"
	"github.com/aristath/loonie/internal/clients/countryis"
	"github.com/aristath/loonie/internal/clients/exchangerate"
	"github.com/aristath/loonie/internal/clients/mapbox"
	"github.com/aristath/loonie/internal/database"
	"github.com/aristath/loonie/internal/domain"
	"github.com/aristath/loonie/internal/geolocation"
	"github.com/aristath/loonie/internal/modules/breakdown"
	"github.com/aristath/loonie/internal/modules/preferences"
	"github.com/aristath/loonie/internal/scheduler"
	"github.com/aristath/loonie/internal/services"
	"github.com/jonboulle/clockwork"
)

// Container holds all application dependencies
type Container struct {
	Clock clockwork.Clock

	// Databases
	ClientDataDB *database.DB // client_data.db - cached exchange rates and locations

	// Repositories and cache stores
	ClientDataRepo *clientdata.Repository
	RateStore      cache.Store // exchange rate cache entries
	LocationStore  cache.Store // detected location cache entries
	cacheCloser    io.Closer   // set when the backend holds a connection (redis)

	// Clients
	HTTPClient         *http.Client
	ExchangeRateClient *exchangerate.Client
	MapboxClient       *mapbox.Client
	CountryClient      *countryis.Client

	// Location sources
	CoordinateSource domain.CoordinateSource // nil when GPS detection is disabled
	CoordinateRelay  *geolocation.Relay      // set only for the relay source

	// Services
	ExchangeRateService    *services.ExchangeRateCacheService
	LocationService        *services.LocationService
	PriceConversionService *services.PriceConversionService
	PreferenceStore        *preferences.Store
	BreakdownEstimator     *breakdown.Estimator

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to all registered jobs for manual triggering
type JobInstances struct {
	RateRefresh         scheduler.Job
	ClientDataCleanup   scheduler.Job
	CheckWALCheckpoints scheduler.Job
}

// Close releases the cache backend and closes the database.
func (c *Container) Close() error {
	var firstErr error
	if c.cacheCloser != nil {
		if err := c.cacheCloser.Close(); err != nil {
			firstErr = err
		}
		c.cacheCloser = nil
	}
	if c.ClientDataDB != nil {
		if err := c.ClientDataDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
