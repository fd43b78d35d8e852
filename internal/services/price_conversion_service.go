package services

import (
	"context"
	"fmt"

	"github.com/aristath/loonie/internal/domain"
	"github.com/aristath/loonie/internal/metrics"
	"github.com/aristath/loonie/internal/modules/conversion"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceConversionService converts prices into the currency a visitor prefers.
// It never fails: when a rate or a conversion is unavailable the original
// price is returned.
type PriceConversionService struct {
	rates     domain.RateProvider
	convertFn func(domain.Money, domain.Currency, decimal.Decimal) domain.Money
	log       zerolog.Logger
}

// NewPriceConversionService creates a new price conversion service
func NewPriceConversionService(rates domain.RateProvider, log zerolog.Logger) *PriceConversionService {
	return &PriceConversionService{
		rates:     rates,
		convertFn: conversion.Convert,
		log:       log.With().Str("service", "price_conversion").Logger(),
	}
}

// ConvertPriceForUser returns price in pref's effective currency.
// nil stays nil; anything that cannot be converted is returned as is.
func (s *PriceConversionService) ConvertPriceForUser(
	ctx context.Context,
	price *domain.Money,
	pref domain.CurrencyPreference,
) *domain.Money {
	if price == nil {
		return nil
	}

	target := pref.Effective()
	if !conversion.NeedsConversion(*price, target) {
		metrics.RecordConversion("unchanged")
		return price
	}

	rate, err := s.getRate(ctx)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("price", price.String()).
			Str("target", string(target)).
			Msg("Failed to get exchange rate - using original price")
		metrics.RecordConversion("failed")
		return price
	}

	converted, err := s.convert(*price, target, rate)
	if err != nil {
		s.log.Warn().Err(err).Str("price", price.String()).Msg("Conversion failed - using original price")
		metrics.RecordConversion("failed")
		return price
	}

	metrics.RecordConversion("converted")
	return &converted
}

// ConvertListingPrices returns copies of listings with prices in pref's
// effective currency. The rate is fetched at most once per call. Listings
// that cannot be converted keep their original price.
func (s *PriceConversionService) ConvertListingPrices(
	ctx context.Context,
	listings []domain.Listing,
	pref domain.CurrencyPreference,
) []domain.Listing {
	if listings == nil {
		return nil
	}

	target := pref.Effective()
	out := make([]domain.Listing, len(listings))
	copy(out, listings)

	needed := 0
	for _, l := range out {
		if l.Price != nil && conversion.NeedsConversion(*l.Price, target) {
			needed++
		}
	}
	if needed == 0 {
		return out
	}

	rate, err := s.getRate(ctx)
	if err != nil {
		s.log.Warn().
			Err(err).
			Int("listings", len(listings)).
			Str("target", string(target)).
			Msg("Failed to get exchange rate - using original listing prices")
		return out
	}

	convertedCount := 0
	skippedCount := 0

	for i := range out {
		price := out[i].Price
		if price == nil || !conversion.NeedsConversion(*price, target) {
			continue
		}

		converted, err := s.convert(*price, target, rate)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("listing", out[i].ID).
				Str("price", price.String()).
				Msg("Failed to convert listing price - using original price")
			metrics.RecordConversion("failed")
			skippedCount++
			continue
		}

		out[i].Price = &converted
		metrics.RecordConversion("converted")
		convertedCount++
	}

	s.log.Debug().
		Int("total", len(listings)).
		Int("converted", convertedCount).
		Int("skipped_conversion", skippedCount).
		Str("target", string(target)).
		Msg("Converted listing prices")

	return out
}

// getRate asks the provider for a rate, turning panics into errors.
func (s *PriceConversionService) getRate(ctx context.Context) (rate decimal.Decimal, err error) {
	if s.rates == nil {
		return decimal.Zero, fmt.Errorf("exchange rate provider not available")
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rate provider panicked: %v", p)
		}
	}()

	return s.rates.GetRate(ctx)
}

// convert runs a single conversion, turning panics into errors.
func (s *PriceConversionService) convert(m domain.Money, target domain.Currency, rate decimal.Decimal) (out domain.Money, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("conversion panicked: %v", p)
		}
	}()

	return s.convertFn(m, target, rate), nil
}
