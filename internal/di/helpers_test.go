package di

import (
	"testing"
	"time"

	"github.com/aristath/loonie/internal/config"
	"github.com/shopspring/decimal"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:  t.TempDir(),
		LogLevel: "info",
		Port:     8001,
		Cache: config.CacheConfig{
			Backend: config.CacheBackendSQLite,
		},
		Rates: config.RateConfig{
			APIURL:         "http://127.0.0.1:1/latest/USD",
			FallbackRate:   decimal.RequireFromString("1.35"),
			FallbackSticky: true,
			TTL:            30 * time.Minute,
		},
		Location: config.LocationConfig{
			TTL:              24 * time.Hour,
			MapboxURL:        "http://127.0.0.1:1",
			IPGeoURL:         "http://127.0.0.1:1/",
			GPSTimeout:       time.Second,
			CoordinateSource: config.CoordinateSourceNone,
		},
		HTTPClient: config.HTTPClientConfig{
			RequestsPerSecond: 5,
			Timeout:           time.Second,
		},
		Jobs: config.JobConfig{
			RateRefreshSchedule:  "@every 30m",
			CacheCleanupSchedule: "@daily",
		},
		TransactionProcesses: []string{"default-booking"},
		MetricsEnabled:       true,
	}
}
