// Package conversion converts Money between USD and CAD.
package conversion

import (
	"github.com/aristath/loonie/internal/domain"
	"github.com/shopspring/decimal"
)

// Convert returns m expressed in target, using rate as CAD per USD.
//
// USD→CAD multiplies by rate, CAD→USD divides by it. The result is rounded
// half away from zero to whole subunits. Same-currency input, currencies
// outside USD/CAD, non-positive rates and results too large for Money return
// m unchanged. A USD→CAD→USD round trip can drift by one subunit; that is
// expected.
func Convert(m domain.Money, target domain.Currency, rate decimal.Decimal) domain.Money {
	from := m.Currency()
	if from == target {
		return m
	}
	if !from.IsSupported() || !target.IsSupported() || !rate.IsPositive() {
		return m
	}

	var converted decimal.Decimal
	switch {
	case from == domain.CurrencyUSD && target == domain.CurrencyCAD:
		converted = m.Decimal().Mul(rate)
	case from == domain.CurrencyCAD && target == domain.CurrencyUSD:
		converted = m.Decimal().Div(rate)
	default:
		return m
	}

	out, err := domain.NewMoneyFromDecimal(converted.Round(0), target)
	if err != nil {
		return m
	}
	return out
}

// NeedsConversion reports whether converting m to target requires a rate.
func NeedsConversion(m domain.Money, target domain.Currency) bool {
	from := m.Currency()
	return from != target && from.IsSupported() && target.IsSupported()
}
