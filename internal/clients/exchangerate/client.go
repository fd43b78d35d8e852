// Package exchangerate provides a client for the exchangerate-api.com v4 endpoint.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aristath/loonie/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	serviceName    = "exchangerate-api"
	DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest/USD"
)

// Client for exchangerate-api.com
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new exchangerate-api.com client.
// baseURL is the full latest-rates URL for the USD base; empty uses the public endpoint.
func NewClient(baseURL string, httpClient *http.Client, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  httpClient,
		log:     log.With().Str("client", serviceName).Logger(),
	}
}

// latestResponse is the subset of the v4 payload we read.
// Rates are kept raw so a non-numeric value can be told apart from a missing one.
type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]json.RawMessage `json:"rates"`
}

// FetchRate returns how many units of quote one unit of the base currency buys.
// Failures are reported as *domain.NetworkError or *domain.DataError.
func (c *Client) FetchRate(ctx context.Context, quote domain.Currency) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return decimal.Zero, &domain.NetworkError{Service: serviceName, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", c.baseURL).Msg("Fetching rates")

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, &domain.NetworkError{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decimal.Zero, &domain.NetworkError{Service: serviceName, StatusCode: resp.StatusCode}
	}

	var result latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, &domain.DataError{Service: serviceName, Field: "body", Err: err}
	}

	field := "rates." + string(quote)
	raw, ok := result.Rates[string(quote)]
	if !ok {
		return decimal.Zero, &domain.DataError{Service: serviceName, Field: field}
	}

	// Only bare JSON numbers are accepted; strings and nulls are rejected
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil || len(raw) == 0 || raw[0] == '"' {
		return decimal.Zero, &domain.DataError{Service: serviceName, Field: field}
	}

	rate, err := decimal.NewFromString(number.String())
	if err != nil {
		return decimal.Zero, &domain.DataError{Service: serviceName, Field: field, Err: err}
	}
	if !rate.IsPositive() {
		return decimal.Zero, &domain.DataError{Service: serviceName, Field: field, Err: fmt.Errorf("non-positive rate %s", rate)}
	}

	c.log.Info().
		Str("base", result.Base).
		Str("quote", string(quote)).
		Str("rate", rate.String()).
		Msg("Fetched rate")

	return rate, nil
}
