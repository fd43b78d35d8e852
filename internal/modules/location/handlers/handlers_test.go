package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/loonie/internal/cache"
	"github.com/aristath/loonie/internal/domain"
	"github.com/aristath/loonie/internal/geolocation"
	"github.com/aristath/loonie/internal/modules/preferences"
	"github.com/aristath/loonie/internal/services"
	testhelpers "github.com/aristath/loonie/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	country string
}

func (g stubGeocoder) ReverseCountry(ctx context.Context, coords domain.Coordinates) (string, error) {
	return g.country, nil
}

type stubIPLocator struct {
	country string
}

func (l stubIPLocator) LookupCountry(ctx context.Context) (string, error) {
	return l.country, nil
}

type testEnv struct {
	router chi.Router
	relay  *geolocation.Relay
	prefs  *preferences.Store
}

func setupTestHandler(t *testing.T, store cache.Store, withRelay bool) *testEnv {
	t.Helper()

	logger := zerolog.New(nil).Level(zerolog.Disabled)

	var relay *geolocation.Relay
	var coords domain.CoordinateSource
	if withRelay {
		relay = geolocation.NewRelay(time.Minute, nil, logger)
		coords = relay
	}

	locations := services.NewLocationService(
		coords,
		stubGeocoder{country: "CA"},
		stubIPLocator{country: "US"},
		store,
		nil,
		services.LocationServiceConfig{TTL: time.Hour, GPSTimeout: 50 * time.Millisecond},
		logger,
	)
	prefs := preferences.NewStore(logger)

	var handler *Handler
	if relay != nil {
		handler = NewHandler(locations, relay, prefs, logger)
	} else {
		handler = NewHandler(locations, nil, prefs, logger)
	}

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)

	return &testEnv{router: router, relay: relay, prefs: prefs}
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data     json.RawMessage        `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Contains(t, envelope.Metadata, "timestamp")
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestHandleGetLocation_FallsBackToIP(t *testing.T) {
	env := setupTestHandler(t, cache.NewMemoryStore(nil), true)

	req := httptest.NewRequest(http.MethodGet, "/api/location", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var loc domain.LocationResult
	decodeData(t, w, &loc)
	assert.Equal(t, "US", loc.CountryCode)
	assert.Equal(t, domain.MethodIP, loc.Method)
	assert.Equal(t, domain.CurrencyUSD, loc.Currency)

	info := env.prefs.Info()
	assert.False(t, info.IsLoading)
	assert.Equal(t, "US", info.DetectedCountry)
}

func TestHandleGetLocation_UsesReportedCoordinates(t *testing.T) {
	env := setupTestHandler(t, cache.NewMemoryStore(nil), true)

	body := bytes.NewBufferString(`{"lat": 45.4215, "lng": -75.6972}`)
	req := httptest.NewRequest(http.MethodPost, "/api/location/coordinates", body)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/location?refresh=true", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var loc domain.LocationResult
	decodeData(t, w, &loc)
	assert.Equal(t, "CA", loc.CountryCode)
	assert.Equal(t, domain.MethodGPS, loc.Method)
	assert.Equal(t, domain.CurrencyCAD, loc.Currency)
	assert.Equal(t, domain.CurrencyCAD, env.prefs.Preference().Effective())
}

func TestHandleGetLocation_ServedFromCache(t *testing.T) {
	env := setupTestHandler(t, cache.NewMemoryStore(nil), true)

	req := httptest.NewRequest(http.MethodGet, "/api/location", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// A later report does not change the cached answer until refresh
	env.relay.Push(domain.Coordinates{Lat: 45.4215, Lng: -75.6972})

	req = httptest.NewRequest(http.MethodGet, "/api/location", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var loc domain.LocationResult
	decodeData(t, w, &loc)
	assert.Equal(t, "US", loc.CountryCode)
}

func TestHandlePostCoordinates_Denied(t *testing.T) {
	env := setupTestHandler(t, cache.NewMemoryStore(nil), true)

	body := bytes.NewBufferString(`{"denied": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/location/coordinates", body)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	decodeData(t, w, &resp)
	assert.Equal(t, true, resp["denied"])

	_, err := env.relay.Acquire(context.Background())
	var permErr *domain.PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "permission denied", permErr.Reason)
}

func TestHandlePostCoordinates_Validation(t *testing.T) {
	env := setupTestHandler(t, cache.NewMemoryStore(nil), true)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing lng", `{"lat": 45.0}`},
		{"latitude out of range", `{"lat": 91, "lng": 0}`},
		{"longitude out of range", `{"lat": 0, "lng": -181}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/location/coordinates", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandlePostCoordinates_RelayDisabled(t *testing.T) {
	env := setupTestHandler(t, cache.NewMemoryStore(nil), false)

	body := bytes.NewBufferString(`{"lat": 45.4215, "lng": -75.6972}`)
	req := httptest.NewRequest(http.MethodPost, "/api/location/coordinates", body)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleGetCoordinatesStatus(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		env := setupTestHandler(t, cache.NewMemoryStore(nil), true)

		req := httptest.NewRequest(http.MethodGet, "/api/location/coordinates", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		decodeData(t, w, &resp)
		assert.Equal(t, true, resp["enabled"])
		assert.Equal(t, float64(0), resp["waiting"])
	})

	t.Run("disabled", func(t *testing.T) {
		env := setupTestHandler(t, cache.NewMemoryStore(nil), false)

		req := httptest.NewRequest(http.MethodGet, "/api/location/coordinates", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		decodeData(t, w, &resp)
		assert.Equal(t, false, resp["enabled"])
	})
}

func TestHandleClearCache(t *testing.T) {
	env := setupTestHandler(t, cache.NewMemoryStore(nil), true)

	req := httptest.NewRequest(http.MethodDelete, "/api/location/cache", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	decodeData(t, w, &resp)
	assert.Equal(t, true, resp["cleared"])
}

func TestHandleClearCache_StoreFailure(t *testing.T) {
	env := setupTestHandler(t, testhelpers.FailingStore{}, true)

	req := httptest.NewRequest(http.MethodDelete, "/api/location/cache", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
