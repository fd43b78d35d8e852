// Package handlers provides HTTP handlers for currency operations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/loonie/internal/domain"
	"github.com/aristath/loonie/internal/modules/breakdown"
	"github.com/aristath/loonie/internal/modules/preferences"
	"github.com/aristath/loonie/internal/services"
	"github.com/rs/zerolog"
)

// UnknownProcessMessageID is shown by the UI when a breakdown names an unknown process.
const UnknownProcessMessageID = "OrderPanel.unknownTransactionProcess"

// Handler handles currency HTTP requests
type Handler struct {
	preferences *preferences.Store
	resolver    domain.LocationResolver
	prices      *services.PriceConversionService
	rates       *services.ExchangeRateCacheService
	estimator   *breakdown.Estimator
	log         zerolog.Logger
}

// NewHandler creates a new currency handler
func NewHandler(
	prefs *preferences.Store,
	resolver domain.LocationResolver,
	prices *services.PriceConversionService,
	rates *services.ExchangeRateCacheService,
	estimator *breakdown.Estimator,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		preferences: prefs,
		resolver:    resolver,
		prices:      prices,
		rates:       rates,
		estimator:   estimator,
		log:         log.With().Str("handler", "currency").Logger(),
	}
}

// ManualCurrencyRequest selects a display currency
type ManualCurrencyRequest struct {
	Currency string `json:"currency"`
}

// ConvertListingsRequest carries listings to convert
type ConvertListingsRequest struct {
	Listings []domain.Listing `json:"listings"`
}

// RateResponse describes the cached rate
type RateResponse struct {
	Cached bool `json:"cached"`
	*services.RateInfo
}

// HandleGetInfo handles GET /api/currency/info
func (h *Handler) HandleGetInfo(w http.ResponseWriter, r *http.Request) {
	h.ensureDetected(r.Context())
	h.writeData(w, http.StatusOK, h.preferences.Info())
}

// HandleSetManual handles PUT /api/currency/manual
func (h *Handler) HandleSetManual(w http.ResponseWriter, r *http.Request) {
	var req ManualCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.preferences.SetManualCurrency(req.Currency); err != nil {
		if errors.Is(err, domain.ErrUnsupportedCurrency) {
			http.Error(w, "currency must be USD or CAD", http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to set manual currency")
		http.Error(w, "Failed to set currency", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, h.preferences.Info())
}

// HandleClearManual handles DELETE /api/currency/manual
func (h *Handler) HandleClearManual(w http.ResponseWriter, r *http.Request) {
	h.preferences.ClearManualCurrency()
	h.ensureDetected(r.Context())
	h.writeData(w, http.StatusOK, h.preferences.Info())
}

// HandleConvert handles POST /api/currency/convert
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var price domain.Money
	if err := json.NewDecoder(r.Body).Decode(&price); err != nil {
		http.Error(w, "Invalid money: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.ensureDetected(r.Context())
	pref := h.preferences.Preference()
	converted := h.prices.ConvertPriceForUser(r.Context(), &price, pref)

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"original":          price,
		"converted":         converted,
		"effectiveCurrency": pref.Effective(),
	})
}

// HandleConvertListings handles POST /api/currency/listings/convert
func (h *Handler) HandleConvertListings(w http.ResponseWriter, r *http.Request) {
	var req ConvertListingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Listings == nil {
		req.Listings = []domain.Listing{}
	}

	h.ensureDetected(r.Context())
	pref := h.preferences.Preference()
	converted := h.prices.ConvertListingPrices(r.Context(), req.Listings, pref)

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"listings":          converted,
		"effectiveCurrency": pref.Effective(),
	})
}

// HandleBreakdown handles POST /api/currency/breakdown
func (h *Handler) HandleBreakdown(w http.ResponseWriter, r *http.Request) {
	var req breakdown.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.ensureDetected(r.Context())
	result, err := h.estimator.Estimate(r.Context(), req, h.preferences.Preference())
	if err != nil {
		if errors.Is(err, breakdown.ErrUnknownProcess) {
			// Shown inline by the order panel rather than failing the page
			h.log.Warn().Str("process", req.ProcessName).Msg("Breakdown requested for unknown process")
			h.writeJSON(w, http.StatusOK, map[string]interface{}{
				"data": nil,
				"error": map[string]interface{}{
					"message_id": UnknownProcessMessageID,
					"message":    err.Error(),
				},
				"metadata": metadata(),
			})
			return
		}
		h.log.Error().Err(err).Msg("Failed to estimate breakdown")
		http.Error(w, "Failed to estimate breakdown", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, result)
}

// HandleGetRate handles GET /api/currency/rate
func (h *Handler) HandleGetRate(w http.ResponseWriter, r *http.Request) {
	info, ok := h.rates.RateInfo(r.Context())
	if !ok {
		h.writeData(w, http.StatusOK, RateResponse{Cached: false})
		return
	}
	h.writeData(w, http.StatusOK, RateResponse{Cached: true, RateInfo: &info})
}

// HandleClearRateCache handles DELETE /api/currency/rate/cache
func (h *Handler) HandleClearRateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.rates.ClearCache(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear exchange rate cache")
		http.Error(w, "Failed to clear exchange rate cache", http.StatusInternalServerError)
		return
	}
	h.writeData(w, http.StatusOK, map[string]interface{}{"cleared": true})
}

// ensureDetected seeds the preference store on first use.
// A failed detection only means the store keeps its defaults.
func (h *Handler) ensureDetected(ctx context.Context) {
	if !h.preferences.Info().IsLoading || h.resolver == nil {
		return
	}
	if _, err := h.preferences.Detect(ctx, h.resolver); err != nil {
		h.log.Warn().Err(err).Msg("Location detection did not finish")
	}
}

func metadata() map[string]interface{} {
	return map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data":     data,
		"metadata": metadata(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
