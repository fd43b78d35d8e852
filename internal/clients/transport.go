// Package clients holds the HTTP plumbing shared by the external service clients.
package clients

import (
	"net/http"
	"time"

	"go.uber.org/ratelimit"
)

// rateLimitedTransport blocks each outbound request until the limiter admits it.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter ratelimit.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.limiter.Take()
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns an http.Client that allows at most rps requests per
// second across every service sharing it. rps <= 0 disables limiting.
func NewHTTPClient(rps int, timeout time.Duration) *http.Client {
	var transport http.RoundTripper = http.DefaultTransport
	if rps > 0 {
		transport = &rateLimitedTransport{
			base:    http.DefaultTransport,
			limiter: ratelimit.New(rps),
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
