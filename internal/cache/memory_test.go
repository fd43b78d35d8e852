package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(clockwork.NewFakeClock())

	require.NoError(t, store.Set(ctx, "k", []byte("v1"), time.Minute))
	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	require.NoError(t, store.Set(ctx, "k", []byte("v2"), time.Minute))
	data, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Missing(t *testing.T) {
	data, err := NewMemoryStore(nil).Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 30*time.Minute))

	clock.Advance(29 * time.Minute)
	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.NotNil(t, data)

	clock.Advance(time.Minute)
	data, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, time.Minute))
	value[0] = 'z'

	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	type entry struct {
		Rate float64 `json:"rate"`
	}

	found, err := GetJSON(ctx, store, "rate", &entry{})
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, store, "rate", entry{Rate: 1.35}, time.Minute))

	var got entry
	found, err = GetJSON(ctx, store, "rate", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1.35, got.Rate)

	require.NoError(t, store.Set(ctx, "broken", []byte("{"), time.Minute))
	_, err = GetJSON(ctx, store, "broken", &got)
	assert.Error(t, err)
}
