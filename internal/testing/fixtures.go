package testing

import (
	"github.com/aristath/loonie/internal/domain"
	"github.com/shopspring/decimal"
)

// NewListingFixtures returns a mixed set of listings: USD, CAD, one without a
// price and one priced in a currency outside the conversion pair.
func NewListingFixtures() []domain.Listing {
	usd := domain.MustMoney(3000, domain.CurrencyUSD)
	cad := domain.MustMoney(4050, domain.CurrencyCAD)
	eur := domain.MustMoney(2500, domain.Currency("EUR"))

	return []domain.Listing{
		{ID: "listing-usd", Title: "Canoe rental", Price: &usd},
		{ID: "listing-cad", Title: "Cabin weekend", Price: &cad},
		{ID: "listing-free", Title: "Community meetup"},
		{ID: "listing-eur", Title: "Imported kayak", Price: &eur},
	}
}

// NewLineItemFixtures returns a booking-style set of line items: a nightly
// charge shared by both parties and a customer-only commission.
func NewLineItemFixtures(currency domain.Currency) []domain.LineItem {
	night := domain.MustMoney(10000, currency)
	nights := domain.MustMoney(20000, currency)
	fee := domain.MustMoney(1000, currency)

	return []domain.LineItem{
		{
			Code:       "line-item/night",
			UnitPrice:  &night,
			LineTotal:  &nights,
			Quantity:   decimal.NewFromInt(2),
			IncludeFor: []string{"customer", "provider"},
		},
		{
			Code:       "line-item/customer-commission",
			UnitPrice:  &fee,
			LineTotal:  &fee,
			Quantity:   decimal.NewFromInt(1),
			IncludeFor: []string{"customer"},
		},
	}
}
