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
	"github.com/aristath/loonie/internal/modules/breakdown"
	"github.com/aristath/loonie/internal/modules/preferences"
	"github.com/aristath/loonie/internal/services"
	testhelpers "github.com/aristath/loonie/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	rate decimal.Decimal
}

func (m mockFetcher) FetchRate(ctx context.Context, quote domain.Currency) (decimal.Decimal, error) {
	return m.rate, nil
}

type testEnv struct {
	router   chi.Router
	prefs    *preferences.Store
	resolver *testhelpers.MockLocationResolver
	rates    *services.ExchangeRateCacheService
}

func setupTestHandler(t *testing.T, country string) *testEnv {
	t.Helper()

	logger := zerolog.New(nil).Level(zerolog.Disabled)
	clock := clockwork.NewFakeClock()

	rates := services.NewExchangeRateCacheService(
		mockFetcher{rate: decimal.RequireFromString("1.35")},
		cache.NewMemoryStore(clock),
		clock,
		services.ExchangeRateCacheConfig{TTL: 30 * time.Minute, FallbackSticky: true},
		logger,
	)
	prices := services.NewPriceConversionService(rates, logger)
	prefs := preferences.NewStore(logger)
	resolver := testhelpers.NewMockLocationResolver(country, domain.MethodIP)
	estimator := breakdown.NewEstimator([]string{"default-booking"}, prices, clock, logger)

	handler := NewHandler(prefs, resolver, prices, rates, estimator, logger)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)

	return &testEnv{router: router, prefs: prefs, resolver: resolver, rates: rates}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	}
	return w, response
}

func TestHandleGetInfo_DetectsOnFirstUse(t *testing.T) {
	env := setupTestHandler(t, "CA")

	w, response := env.do(t, http.MethodGet, "/api/currency/info", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, response, "metadata")

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "CAD", data["effectiveCurrency"])
	assert.Equal(t, true, data["effectiveIsCanadian"])
	assert.Equal(t, false, data["isManualSelection"])
	assert.Equal(t, "CA", data["stripeCountry"])
	assert.Equal(t, false, data["isLoading"])

	env.do(t, http.MethodGet, "/api/currency/info", nil)
	assert.Equal(t, 1, env.resolver.Calls())
}

func TestHandleSetAndClearManual(t *testing.T) {
	env := setupTestHandler(t, "CA")

	w, response := env.do(t, http.MethodPut, "/api/currency/manual", ManualCurrencyRequest{Currency: "usd"})
	require.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "USD", data["effectiveCurrency"])
	assert.Equal(t, "USD", data["selectedCurrency"])
	assert.Equal(t, true, data["isManualSelection"])

	w, response = env.do(t, http.MethodDelete, "/api/currency/manual", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, "CAD", data["effectiveCurrency"])
	assert.Equal(t, false, data["isManualSelection"])
}

func TestHandleSetManual_Invalid(t *testing.T) {
	env := setupTestHandler(t, "US")

	w, _ := env.do(t, http.MethodPut, "/api/currency/manual", ManualCurrencyRequest{Currency: "EUR"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/api/currency/manual", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.False(t, env.prefs.Info().IsManualSelection)
}

func TestHandleConvert(t *testing.T) {
	env := setupTestHandler(t, "CA")

	w, response := env.do(t, http.MethodPost, "/api/currency/convert", map[string]interface{}{
		"amount":   3000,
		"currency": "USD",
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	converted := data["converted"].(map[string]interface{})
	assert.Equal(t, float64(4050), converted["amount"])
	assert.Equal(t, "CAD", converted["currency"])
	assert.Equal(t, "CAD", data["effectiveCurrency"])
}

func TestHandleConvert_InvalidMoney(t *testing.T) {
	env := setupTestHandler(t, "CA")

	bodies := []string{
		`{"amount": -5, "currency": "USD"}`,
		`{"amount": 10.5, "currency": "USD"}`,
		`{"amount": 10}`,
		`nonsense`,
	}
	for _, body := range bodies {
		w, _ := env.do(t, http.MethodPost, "/api/currency/convert", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestHandleConvertListings(t *testing.T) {
	env := setupTestHandler(t, "CA")

	w, response := env.do(t, http.MethodPost, "/api/currency/listings/convert", ConvertListingsRequest{
		Listings: testhelpers.NewListingFixtures(),
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	listings := data["listings"].([]interface{})
	require.Len(t, listings, 4)

	first := listings[0].(map[string]interface{})["price"].(map[string]interface{})
	assert.Equal(t, float64(4050), first["amount"])
	assert.NotContains(t, listings[2].(map[string]interface{}), "price")
}

func TestHandleBreakdown(t *testing.T) {
	env := setupTestHandler(t, "CA")

	w, response := env.do(t, http.MethodPost, "/api/currency/breakdown", breakdown.Request{
		ProcessName: "default-booking",
		LineItems:   testhelpers.NewLineItemFixtures(domain.CurrencyUSD),
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	payin := data["payinTotal"].(map[string]interface{})
	assert.Equal(t, float64(28350), payin["amount"])
	assert.Equal(t, "CAD", payin["currency"])
	assert.NotEmpty(t, data["transactionId"])
}

func TestHandleBreakdown_UnknownProcess(t *testing.T) {
	env := setupTestHandler(t, "CA")

	w, response := env.do(t, http.MethodPost, "/api/currency/breakdown", breakdown.Request{ProcessName: "mystery"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, response["data"])
	errBody := response["error"].(map[string]interface{})
	assert.Equal(t, UnknownProcessMessageID, errBody["message_id"])
}

func TestHandleRateEndpoints(t *testing.T) {
	env := setupTestHandler(t, "CA")

	_, response := env.do(t, http.MethodGet, "/api/currency/rate", nil)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, false, data["cached"])

	_, err := env.rates.GetRate(context.Background())
	require.NoError(t, err)

	_, response = env.do(t, http.MethodGet, "/api/currency/rate", nil)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, true, data["cached"])
	assert.Equal(t, "1.35", data["rate"])
	assert.Equal(t, "api", data["source"])

	w, _ := env.do(t, http.MethodDelete, "/api/currency/rate/cache", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok := env.rates.RateInfo(context.Background())
	assert.False(t, ok)
}
