// Package breakdown estimates an order breakdown in the visitor's currency
// before a transaction exists.
package breakdown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/loonie/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ErrUnknownProcess is returned for a transaction process that is not configured.
var ErrUnknownProcess = errors.New("unknown transaction process")

// Parties a line item can be included for.
const (
	PartyCustomer = "customer"
	PartyProvider = "provider"
)

// PriceConverter converts a single price for the visitor.
type PriceConverter interface {
	ConvertPriceForUser(ctx context.Context, price *domain.Money, pref domain.CurrencyPreference) *domain.Money
}

// Request is the input for an estimate.
type Request struct {
	ProcessName  string            `json:"processName"`
	LineItems    []domain.LineItem `json:"lineItems"`
	BookingStart *time.Time        `json:"bookingStart,omitempty"`
	BookingEnd   *time.Time        `json:"bookingEnd,omitempty"`
}

// Booking is the estimated booking period.
type Booking struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Breakdown is an estimated transaction. LineItems holds the customer's items.
type Breakdown struct {
	TransactionID uuid.UUID         `json:"transactionId"`
	ProcessName   string            `json:"processName"`
	CreatedAt     time.Time         `json:"createdAt"`
	LineItems     []domain.LineItem `json:"lineItems"`
	PayinTotal    domain.Money      `json:"payinTotal"`
	PayoutTotal   domain.Money      `json:"payoutTotal"`
	Booking       *Booking          `json:"booking,omitempty"`
}

// Estimator builds estimated breakdowns for the configured processes.
type Estimator struct {
	processes map[string]bool
	prices    PriceConverter
	clock     clockwork.Clock
	log       zerolog.Logger
}

// NewEstimator creates an estimator that accepts the given process names.
func NewEstimator(processes []string, prices PriceConverter, clock clockwork.Clock, log zerolog.Logger) *Estimator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	known := make(map[string]bool, len(processes))
	for _, p := range processes {
		known[p] = true
	}
	return &Estimator{
		processes: known,
		prices:    prices,
		clock:     clock,
		log:       log.With().Str("component", "breakdown_estimator").Logger(),
	}
}

// Estimate converts every line item into pref's effective currency and sums
// the customer items into the pay-in total and provider items into the payout.
// Only items carrying both a unit price and a line total are converted. An
// item with a line total alone keeps its currency, and if that differs from
// the total's currency it is left out of the sum.
func (e *Estimator) Estimate(ctx context.Context, req Request, pref domain.CurrencyPreference) (*Breakdown, error) {
	if !e.processes[req.ProcessName] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcess, req.ProcessName)
	}

	converted := make([]domain.LineItem, len(req.LineItems))
	for i, item := range req.LineItems {
		converted[i] = e.convertLineItem(ctx, item, pref)
	}

	var customerItems, providerItems []domain.LineItem
	for _, item := range converted {
		if item.IncludedFor(PartyCustomer) {
			customerItems = append(customerItems, item)
		}
		if item.IncludedFor(PartyProvider) {
			providerItems = append(providerItems, item)
		}
	}

	breakdown := &Breakdown{
		TransactionID: uuid.New(),
		ProcessName:   req.ProcessName,
		CreatedAt:     e.clock.Now(),
		LineItems:     customerItems,
		PayinTotal:    e.total(customerItems, pref.Effective()),
		PayoutTotal:   e.total(providerItems, pref.Effective()),
	}
	if breakdown.LineItems == nil {
		breakdown.LineItems = []domain.LineItem{}
	}
	if req.BookingStart != nil && req.BookingEnd != nil {
		breakdown.Booking = &Booking{Start: *req.BookingStart, End: *req.BookingEnd}
	}

	return breakdown, nil
}

// convertLineItem converts both prices of an item that carries both of them.
// Items missing either price are returned unchanged.
func (e *Estimator) convertLineItem(ctx context.Context, item domain.LineItem, pref domain.CurrencyPreference) domain.LineItem {
	if item.UnitPrice == nil || item.LineTotal == nil {
		return item
	}
	item.UnitPrice = e.prices.ConvertPriceForUser(ctx, item.UnitPrice, pref)
	item.LineTotal = e.prices.ConvertPriceForUser(ctx, item.LineTotal, pref)
	return item
}

// total sums line totals. The currency comes from the first item's unit
// price, or fallback when there is none; items in another currency are skipped.
func (e *Estimator) total(items []domain.LineItem, fallback domain.Currency) domain.Money {
	currency := fallback
	if len(items) > 0 && items[0].UnitPrice != nil {
		currency = items[0].UnitPrice.Currency()
	}

	sum := domain.MustMoney(0, currency)
	for _, item := range items {
		if item.LineTotal == nil {
			continue
		}
		next, err := sum.Add(*item.LineTotal)
		if err != nil {
			e.log.Warn().
				Err(err).
				Str("code", item.Code).
				Msg("Skipping line item with mismatched currency")
			continue
		}
		sum = next
	}

	return sum
}
