// Package metrics records Prometheus counters for rate lookups, location
// detection and price conversion.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

var enabled atomic.Bool

func init() {
	enabled.Store(true)
}

// SetEnabled turns counter recording on or off.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return enabled.Load()
}

// Handler serves every registered metric in Prometheus text format.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	metrics.WritePrometheus(w, true)
}

func inc(name string) {
	if !IsEnabled() {
		return
	}
	metrics.GetOrCreateCounter(name).Inc()
}

// RecordRateLookup counts exchange rate lookups by how they were answered:
// "cache", "api" or "fallback".
func RecordRateLookup(source string) {
	inc(`loonie_rate_lookups_total{source="` + source + `"}`)
}

// RecordLocationDetection counts completed detections by method.
func RecordLocationDetection(method string) {
	inc(`loonie_location_detections_total{method="` + method + `"}`)
}

// RecordDetectionFailure counts failed detection strategies.
func RecordDetectionFailure(strategy string) {
	inc(`loonie_location_detection_failures_total{strategy="` + strategy + `"}`)
}

// RecordConversion counts price conversions by outcome:
// "converted", "unchanged" or "failed".
func RecordConversion(outcome string) {
	inc(`loonie_price_conversions_total{outcome="` + outcome + `"}`)
}

// CounterValue returns the current value of a counter, for tests and status pages.
func CounterValue(name string) uint64 {
	return metrics.GetOrCreateCounter(name).Get()
}
