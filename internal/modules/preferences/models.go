// Package preferences holds the visitor's currency preference.
package preferences

import "github.com/aristath/loonie/internal/domain"

// Info is the derived view of the current preference shown to the UI.
type Info struct {
	EffectiveCurrency    domain.Currency        `json:"effectiveCurrency"`
	EffectiveIsCanadian  bool                   `json:"effectiveIsCanadian"`
	IsManualSelection    bool                   `json:"isManualSelection"`
	AutoDetectedCurrency domain.Currency        `json:"autoDetectedCurrency"`
	SelectedCurrency     domain.Currency        `json:"selectedCurrency"`
	Symbol               string                 `json:"symbol"`
	DetectedCountry      string                 `json:"detectedCountry"`
	StripeCountry        string                 `json:"stripeCountry"`
	DetectionMethod      domain.DetectionMethod `json:"detectionMethod,omitempty"`
	IsLoading            bool                   `json:"isLoading"`
}
