// Package countryis provides a client for the country.is IP geolocation service.
package countryis

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aristath/loonie/internal/domain"
	"github.com/rs/zerolog"
)

const (
	serviceName    = "country.is"
	DefaultBaseURL = "https://api.country.is/"
)

// Client looks up the caller's country from its public IP address.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new country.is client. An empty baseURL uses the public service.
func NewClient(baseURL string, httpClient *http.Client, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log.With().Str("client", serviceName).Logger(),
	}
}

// LookupCountry returns the upper-cased ISO country code for this host's public IP.
func (c *Client) LookupCountry(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return "", &domain.NetworkError{Service: serviceName, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.NetworkError{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.NetworkError{Service: serviceName, StatusCode: resp.StatusCode}
	}

	var result struct {
		IP      string `json:"ip"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.DataError{Service: serviceName, Field: "body", Err: err}
	}
	if strings.TrimSpace(result.Country) == "" {
		return "", &domain.DataError{Service: serviceName, Field: "country"}
	}

	country := strings.ToUpper(strings.TrimSpace(result.Country))
	c.log.Debug().Str("country", country).Msg("Resolved country from IP")

	return country, nil
}
