package di

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aristath/loonie/internal/cache"
	"github.com/aristath/loonie/internal/clientdata"
	"github.com/aristath/loonie/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepositories(t *testing.T, cfg *config.Config) (*Container, error) {
	t.Helper()

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	return container, InitializeRepositories(container, cfg, zerolog.Nop())
}

func TestInitializeRepositories_SQLite(t *testing.T) {
	cfg := testConfig(t)

	container, err := setupRepositories(t, cfg)
	require.NoError(t, err)

	assert.NotNil(t, container.ClientDataRepo)
	assert.IsType(t, &clientdata.TableStore{}, container.RateStore)
	assert.IsType(t, &clientdata.TableStore{}, container.LocationStore)

	// Entries land in the client data tables
	ctx := context.Background()
	require.NoError(t, container.RateStore.Set(ctx, "exchangeRates:USD:CAD", []byte(`{"rate":"1.35"}`), time.Hour))

	data, err := container.ClientDataRepo.GetIfFresh(ctx, clientdata.TableExchangeRate, "exchangeRates:USD:CAD")
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate":"1.35"}`, string(data))
}

func TestInitializeRepositories_Memory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheBackendMemory

	container, err := setupRepositories(t, cfg)
	require.NoError(t, err)

	assert.IsType(t, &cache.MemoryStore{}, container.RateStore)
	assert.Same(t, container.RateStore, container.LocationStore)
}

func TestInitializeRepositories_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Cache.RedisAddr = mr.Addr()

	container, err := setupRepositories(t, cfg)
	require.NoError(t, err)

	assert.IsType(t, &cache.RedisStore{}, container.RateStore)

	ctx := context.Background()
	require.NoError(t, container.LocationStore.Set(ctx, "detectedUserLocation", []byte(`{}`), time.Hour))
	assert.True(t, mr.Exists("loonie:detectedUserLocation"))
}

func TestInitializeRepositories_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	_, err := setupRepositories(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestInitializeRepositories_NilContainer(t *testing.T) {
	err := InitializeRepositories(nil, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
}
