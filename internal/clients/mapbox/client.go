// Package mapbox provides a reverse geocoding client for the Mapbox Geocoding v5 API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aristath/loonie/internal/domain"
	"github.com/rs/zerolog"
)

const (
	serviceName    = "mapbox"
	DefaultBaseURL = "https://api.mapbox.com"
)

// Client is the Mapbox geocoding client.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	log         zerolog.Logger
}

// NewClient creates a new Mapbox client. An empty baseURL uses the public API.
func NewClient(baseURL, accessToken string, httpClient *http.Client, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  httpClient,
		log:         log.With().Str("client", serviceName).Logger(),
	}
}

// Configured reports whether an access token is set.
func (c *Client) Configured() bool {
	return c.accessToken != ""
}

type geocodeResponse struct {
	Features []struct {
		Properties struct {
			ShortCode string `json:"short_code"`
		} `json:"properties"`
	} `json:"features"`
}

// ReverseCountry returns the upper-cased ISO country code at the given position.
func (c *Client) ReverseCountry(ctx context.Context, coords domain.Coordinates) (string, error) {
	lng := strconv.FormatFloat(coords.Lng, 'f', -1, 64)
	lat := strconv.FormatFloat(coords.Lat, 'f', -1, 64)

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s,%s.json?%s",
		c.baseURL, lng, lat,
		url.Values{"types": {"country"}, "access_token": {c.accessToken}}.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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

	var result geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.DataError{Service: serviceName, Field: "body", Err: err}
	}

	if len(result.Features) == 0 || result.Features[0].Properties.ShortCode == "" {
		return "", &domain.DataError{Service: serviceName, Field: "features[0].properties.short_code"}
	}

	country := strings.ToUpper(result.Features[0].Properties.ShortCode)
	c.log.Debug().Str("country", country).Msg("Reverse geocoded position")

	return country, nil
}
