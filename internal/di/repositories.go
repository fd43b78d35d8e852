// Package di provides dependency injection for repositories and cache stores.
package di

import (
	"fmt"

	"github.com/aristath/loonie/internal/cache"
	"github.com/aristath/loonie/internal/clientdata"
	"github.com/aristath/loonie/internal/config"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the client data repository and picks the
// cache backend used by the rate and location services
func InitializeRepositories(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn(), container.Clock)

	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   "loonie:",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		container.RateStore = store
		container.LocationStore = store
		container.cacheCloser = store

	case config.CacheBackendMemory:
		store := cache.NewMemoryStore(container.Clock)
		container.RateStore = store
		container.LocationStore = store

	default:
		container.RateStore = container.ClientDataRepo.Table(clientdata.TableExchangeRate)
		container.LocationStore = container.ClientDataRepo.Table(clientdata.TableLocation)
	}

	log.Info().Str("backend", backendName(cfg.Cache.Backend)).Msg("Cache backend initialized")

	return nil
}

func backendName(backend string) string {
	if backend == "" {
		return config.CacheBackendSQLite
	}
	return backend
}
