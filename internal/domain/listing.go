package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a marketplace item whose price may be absent.
type Listing struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title,omitempty"`
	Price      *Money                 `json:"price,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// LineItem is one row of an order breakdown.
type LineItem struct {
	Code       string          `json:"code"`
	UnitPrice  *Money          `json:"unitPrice,omitempty"`
	LineTotal  *Money          `json:"lineTotal,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	IncludeFor []string        `json:"includeFor"`
	Reversal   bool            `json:"reversal"`
}

// IncludedFor reports whether the line item applies to the given party.
func (li LineItem) IncludedFor(party string) bool {
	for _, p := range li.IncludeFor {
		if p == party {
			return true
		}
	}
	return false
}

// RateSource records where a cached exchange rate came from.
type RateSource string

const (
	RateSourceAPI      RateSource = "api"
	RateSourceFallback RateSource = "fallback"
)

// ExchangeRate is a cached quote-per-base rate.
type ExchangeRate struct {
	Base      Currency        `json:"base"`
	Quote     Currency        `json:"quote"`
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Source    RateSource      `json:"source"`
}
