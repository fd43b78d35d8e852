// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCAD Currency = "CAD"
)

// SupportedCurrencies lists the currencies that can be converted between.
var SupportedCurrencies = []Currency{CurrencyUSD, CurrencyCAD}

// IsSupported reports whether the currency takes part in conversion.
// Anything else is passed through untouched.
func (c Currency) IsSupported() bool {
	for _, supported := range SupportedCurrencies {
		if c == supported {
			return true
		}
	}
	return false
}

// Symbol returns the display symbol for a supported currency.
func (c Currency) Symbol() string {
	if c == CurrencyCAD {
		return "C$"
	}
	return "$"
}

// ParseCurrency normalizes a user supplied code and validates it.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsSupported() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	return c, nil
}

// CurrencyForCountry maps an ISO country code to the currency shown there.
func CurrencyForCountry(countryCode string) Currency {
	if strings.EqualFold(countryCode, "CA") {
		return CurrencyCAD
	}
	return CurrencyUSD
}

// maxAmount is the largest subunit count Money can hold.
var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Money is an amount in integer subunits (cents) of a currency.
// Values are immutable; conversions always produce a new Money.
type Money struct {
	amount   int64
	currency Currency
}

// NewMoney creates a Money value. Negative amounts are rejected.
func NewMoney(amount int64, currency Currency) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney is NewMoney for constants and tests. It panics on invalid input.
func MustMoney(amount int64, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromDecimal creates a Money value from a subunit count that must be
// a non-negative whole number no larger than math.MaxInt64.
func NewMoneyFromDecimal(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrNegativeAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(0)) {
		return Money{}, fmt.Errorf("%w: %s", ErrFractionalAmount, amount.String())
	}
	if amount.GreaterThan(maxAmount) {
		return Money{}, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount.String())
	}
	return Money{amount: amount.IntPart(), currency: currency}, nil
}

// Amount returns the amount in subunits.
func (m Money) Amount() int64 { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Currency { return m.currency }

// Decimal returns the subunit amount as a decimal for arithmetic.
func (m Money) Decimal() decimal.Decimal { return decimal.NewFromInt(m.amount) }

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.currency, m.currency)
	}
	if other.amount > math.MaxInt64-m.amount {
		return Money{}, fmt.Errorf("%w: %d + %d", ErrAmountOutOfRange, m.amount, other.amount)
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// String formats the amount in major units, e.g. "30.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", decimal.New(m.amount, -2).StringFixed(2), m.currency)
}

type moneyJSON struct {
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

// MarshalJSON encodes Money as {"amount": <subunits>, "currency": "<code>"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}{m.amount, string(m.currency)})
}

// UnmarshalJSON decodes Money through the validating constructor.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode money: %w", err)
	}
	if raw.Currency == "" {
		return fmt.Errorf("money currency is required")
	}
	amount, err := decimal.NewFromString(raw.Amount.String())
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", raw.Amount.String(), err)
	}
	parsed, err := NewMoneyFromDecimal(amount, Currency(raw.Currency))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
