package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/loonie/internal/cache"
	"github.com/aristath/loonie/internal/domain"
	"github.com/aristath/loonie/internal/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ExchangeRateCacheKey is the cache entry holding the USD/CAD rate.
const ExchangeRateCacheKey = "exchangeRates:USD:CAD"

// DefaultFallbackRate is used when the rate API cannot be reached.
var DefaultFallbackRate = decimal.RequireFromString("1.35")

// RateFetcher fetches a live rate for base USD.
type RateFetcher interface {
	FetchRate(ctx context.Context, quote domain.Currency) (decimal.Decimal, error)
}

// ExchangeRateCacheConfig tunes caching and fallback behaviour.
type ExchangeRateCacheConfig struct {
	TTL          time.Duration
	FallbackRate decimal.Decimal
	// FallbackSticky stores the fallback rate for a full TTL so a failing
	// API is not retried on every request.
	FallbackSticky bool
}

// RateInfo describes the cached rate for diagnostics.
type RateInfo struct {
	Rate       decimal.Decimal   `json:"rate"`
	Source     domain.RateSource `json:"source"`
	FetchedAt  time.Time         `json:"fetchedAt"`
	AgeMinutes int               `json:"ageMinutes"`
	IsExpired  bool              `json:"isExpired"`
}

// ExchangeRateCacheService provides the cached USD/CAD rate with fallback:
// 1. Fresh cached rate
// 2. exchangerate-api.com
// 3. Configured fallback rate
type ExchangeRateCacheService struct {
	fetcher RateFetcher
	store   cache.Store
	clock   clockwork.Clock
	cfg     ExchangeRateCacheConfig
	group   singleflight.Group
	log     zerolog.Logger
}

// NewExchangeRateCacheService creates a new exchange rate cache service
func NewExchangeRateCacheService(
	fetcher RateFetcher,
	store cache.Store,
	clock clockwork.Clock,
	cfg ExchangeRateCacheConfig,
	log zerolog.Logger,
) *ExchangeRateCacheService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if !cfg.FallbackRate.IsPositive() {
		cfg.FallbackRate = DefaultFallbackRate
	}
	return &ExchangeRateCacheService{
		fetcher: fetcher,
		store:   store,
		clock:   clock,
		cfg:     cfg,
		log:     log.With().Str("service", "exchange_rate_cache").Logger(),
	}
}

// GetRate returns CAD per USD. Concurrent callers with a cold cache share a
// single fetch. The fetch itself is not cancelled when a caller gives up;
// its result still lands in the cache for the next caller.
func (s *ExchangeRateCacheService) GetRate(ctx context.Context) (decimal.Decimal, error) {
	if rate, ok := s.fresh(ctx); ok {
		metrics.RecordRateLookup("cache")
		return rate.Rate, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(ExchangeRateCacheKey, func() (interface{}, error) {
		return s.refresh(detached), nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.ExchangeRate).Rate, nil
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("waiting for exchange rate: %w", ctx.Err())
	}
}

// refresh fetches a live rate or settles on the fallback. It never fails.
func (s *ExchangeRateCacheService) refresh(ctx context.Context) domain.ExchangeRate {
	// A flight that finished just before this one may already have filled the cache
	if rate, ok := s.fresh(ctx); ok {
		metrics.RecordRateLookup("cache")
		return rate
	}

	now := s.clock.Now()

	live, err := s.fetchLive(ctx)
	if err == nil {
		rate := domain.ExchangeRate{
			Base:      domain.CurrencyUSD,
			Quote:     domain.CurrencyCAD,
			Rate:      live,
			FetchedAt: now,
			Source:    domain.RateSourceAPI,
		}
		s.save(ctx, rate)
		metrics.RecordRateLookup("api")

		s.log.Debug().
			Str("rate", live.String()).
			Str("source", string(domain.RateSourceAPI)).
			Msg("Got rate from ExchangeRate API")
		return rate
	}

	fallback := domain.ExchangeRate{
		Base:      domain.CurrencyUSD,
		Quote:     domain.CurrencyCAD,
		Rate:      s.cfg.FallbackRate,
		FetchedAt: now,
		Source:    domain.RateSourceFallback,
	}
	if s.cfg.FallbackSticky {
		s.save(ctx, fallback)
	}
	metrics.RecordRateLookup("fallback")

	s.log.Warn().
		Err(err).
		Str("rate", fallback.Rate.String()).
		Bool("sticky", s.cfg.FallbackSticky).
		Msg("Using fallback exchange rate")

	return fallback
}

// fetchLive calls the API, turning panics in the fetcher into errors.
func (s *ExchangeRateCacheService) fetchLive(ctx context.Context) (rate decimal.Decimal, err error) {
	if s.fetcher == nil {
		return decimal.Zero, fmt.Errorf("no rate fetcher configured")
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rate fetch panicked: %v", p)
		}
	}()

	rate, err = s.fetcher.FetchRate(ctx, domain.CurrencyCAD)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate %s", rate)
	}
	return rate, nil
}

// fresh returns the cached rate when it is younger than the TTL.
// Cache errors are logged and treated as a miss.
func (s *ExchangeRateCacheService) fresh(ctx context.Context) (domain.ExchangeRate, bool) {
	rate, ok := s.load(ctx)
	if !ok {
		return domain.ExchangeRate{}, false
	}
	if s.clock.Since(rate.FetchedAt) >= s.cfg.TTL || !rate.Rate.IsPositive() {
		return domain.ExchangeRate{}, false
	}
	return rate, true
}

func (s *ExchangeRateCacheService) load(ctx context.Context) (domain.ExchangeRate, bool) {
	if s.store == nil {
		return domain.ExchangeRate{}, false
	}

	var rate domain.ExchangeRate
	found, err := cache.GetJSON(ctx, s.store, ExchangeRateCacheKey, &rate)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read cached exchange rate")
		return domain.ExchangeRate{}, false
	}
	return rate, found
}

func (s *ExchangeRateCacheService) save(ctx context.Context, rate domain.ExchangeRate) {
	if s.store == nil {
		return
	}
	// Entries outlive the TTL so RateInfo can still report an expired rate
	if err := cache.SetJSON(ctx, s.store, ExchangeRateCacheKey, rate, 2*s.cfg.TTL); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache exchange rate")
	}
}

// RateInfo returns the cached rate and its age, reporting false when nothing is cached.
func (s *ExchangeRateCacheService) RateInfo(ctx context.Context) (RateInfo, bool) {
	rate, ok := s.load(ctx)
	if !ok {
		return RateInfo{}, false
	}

	age := s.clock.Since(rate.FetchedAt)
	return RateInfo{
		Rate:       rate.Rate,
		Source:     rate.Source,
		FetchedAt:  rate.FetchedAt,
		AgeMinutes: int(age / time.Minute),
		IsExpired:  age >= s.cfg.TTL,
	}, true
}

// ClearCache removes the cached rate so the next GetRate fetches again.
func (s *ExchangeRateCacheService) ClearCache(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, ExchangeRateCacheKey); err != nil {
		return fmt.Errorf("failed to clear exchange rate cache: %w", err)
	}
	s.log.Info().Msg("Exchange rate cache cleared")
	return nil
}
