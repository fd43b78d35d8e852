package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), Prefix: "loonie:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedis(t)

	require.NoError(t, store.Set(ctx, "exchangeRates:USD:CAD", []byte(`{"rate":"1.35"}`), 30*time.Minute))
	assert.True(t, mr.Exists("loonie:exchangeRates:USD:CAD"))

	data, err := store.Get(ctx, "exchangeRates:USD:CAD")
	require.NoError(t, err)
	assert.Equal(t, `{"rate":"1.35"}`, string(data))

	require.NoError(t, store.Delete(ctx, "exchangeRates:USD:CAD"))
	data, err = store.Get(ctx, "exchangeRates:USD:CAD")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedis(t)

	require.NoError(t, store.Set(ctx, "detectedUserLocation", []byte(`{}`), time.Hour))
	mr.FastForward(time.Hour + time.Second)

	data, err := store.Get(ctx, "detectedUserLocation")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(RedisConfig{Addr: addr})
	assert.Error(t, err)
}
