package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RateRefreshJob keeps the exchange rate cache warm so visitor requests rarely
// wait on the rate API.
type RateRefreshJob struct {
	rates   *ExchangeRateCacheService
	timeout time.Duration
	log     zerolog.Logger
}

// NewRateRefreshJob creates a new rate refresh job
func NewRateRefreshJob(rates *ExchangeRateCacheService, log zerolog.Logger) *RateRefreshJob {
	return &RateRefreshJob{
		rates:   rates,
		timeout: 30 * time.Second,
		log:     log.With().Str("job", "rate_refresh").Logger(),
	}
}

// Run fetches the rate through the cache service. A cached rate is left alone.
func (j *RateRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	rate, err := j.rates.GetRate(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to refresh exchange rate")
		return err
	}

	j.log.Debug().Str("rate", rate.String()).Msg("Exchange rate refreshed")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *RateRefreshJob) Name() string {
	return "rate_refresh"
}
