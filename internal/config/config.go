// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Cache backends
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Coordinate sources
const (
	CoordinateSourceNone   = "none"
	CoordinateSourceStatic = "static"
	CoordinateSourceRelay  = "relay"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the cache database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	Cache      CacheConfig
	Rates      RateConfig
	Location   LocationConfig
	HTTPClient HTTPClientConfig
	Jobs       JobConfig

	TransactionProcesses []string
	MetricsEnabled       bool
}

// CacheConfig selects and configures the key/value cache backend.
type CacheConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// RateConfig configures the USD/CAD exchange rate provider.
type RateConfig struct {
	APIURL         string
	FallbackRate   decimal.Decimal
	FallbackSticky bool
	TTL            time.Duration
}

// LocationConfig configures visitor location detection.
type LocationConfig struct {
	TTL              time.Duration
	MapboxToken      string
	MapboxURL        string
	IPGeoURL         string
	GPSTimeout       time.Duration
	CoordinateSource string
	Latitude         float64
	Longitude        float64
}

// HTTPClientConfig configures outbound requests to external services.
type HTTPClientConfig struct {
	RequestsPerSecond int
	Timeout           time.Duration
}

// JobConfig holds cron schedules for background jobs.
type JobConfig struct {
	RateRefreshSchedule  string
	CacheCleanupSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("LOONIE_DATA_DIR", "data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Cache: CacheConfig{
			Backend:       strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendSQLite)),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
		},
		Rates: RateConfig{
			APIURL:         getEnv("FX_API_URL", "https://api.exchangerate-api.com/v4/latest/USD"),
			FallbackRate:   getEnvAsDecimal("FALLBACK_USD_CAD_RATE", decimal.RequireFromString("1.35")),
			FallbackSticky: getEnvAsBool("FALLBACK_RATE_STICKY", true),
			TTL:            getEnvAsDuration("RATE_TTL", 30*time.Minute),
		},
		Location: LocationConfig{
			TTL:              getEnvAsDuration("LOCATION_TTL", 24*time.Hour),
			MapboxToken:      getEnv("MAPBOX_ACCESS_TOKEN", ""),
			MapboxURL:        getEnv("MAPBOX_URL", "https://api.mapbox.com"),
			IPGeoURL:         getEnv("IP_GEO_URL", "https://api.country.is/"),
			GPSTimeout:       getEnvAsDuration("GPS_TIMEOUT", 10*time.Second),
			CoordinateSource: strings.ToLower(getEnv("COORDINATE_SOURCE", CoordinateSourceNone)),
			Latitude:         getEnvAsFloat("LATITUDE", 0),
			Longitude:        getEnvAsFloat("LONGITUDE", 0),
		},
		HTTPClient: HTTPClientConfig{
			RequestsPerSecond: getEnvAsInt("OUTBOUND_RPS", 5),
			Timeout:           getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		},
		Jobs: JobConfig{
			RateRefreshSchedule:  getEnv("RATE_REFRESH_SCHEDULE", "@every 30m"),
			CacheCleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "@daily"),
		},
		TransactionProcesses: getEnvAsList("TRANSACTION_PROCESSES", []string{
			"default-purchase", "default-booking", "default-inquiry",
		}),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configured values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT: %d", c.Port)
	}

	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendRedis, CacheBackendMemory:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (expected sqlite, redis or memory)", c.Cache.Backend)
	}

	switch c.Location.CoordinateSource {
	case CoordinateSourceNone, CoordinateSourceRelay:
	case CoordinateSourceStatic:
		if c.Location.Latitude < -90 || c.Location.Latitude > 90 ||
			c.Location.Longitude < -180 || c.Location.Longitude > 180 {
			return fmt.Errorf("invalid LATITUDE/LONGITUDE: %v,%v", c.Location.Latitude, c.Location.Longitude)
		}
	default:
		return fmt.Errorf("invalid COORDINATE_SOURCE %q (expected none, static or relay)", c.Location.CoordinateSource)
	}

	if !c.Rates.FallbackRate.IsPositive() {
		return fmt.Errorf("FALLBACK_USD_CAD_RATE must be positive, got %s", c.Rates.FallbackRate)
	}
	if c.Rates.TTL <= 0 || c.Location.TTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.HTTPClient.RequestsPerSecond <= 0 {
		return fmt.Errorf("OUTBOUND_RPS must be positive, got %d", c.HTTPClient.RequestsPerSecond)
	}
	if len(c.TransactionProcesses) == 0 {
		return fmt.Errorf("TRANSACTION_PROCESSES must name at least one process")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
