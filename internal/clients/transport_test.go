package clients

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_LimitsRequests(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewHTTPClient(10, 5*time.Second)
	_, ok := client.Transport.(*rateLimitedTransport)
	require.True(t, ok)

	start := time.Now()
	for i := 0; i < 4; i++ {
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	// 10 rps spaces requests ~100ms apart after the first
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestNewHTTPClient_Unlimited(t *testing.T) {
	client := NewHTTPClient(0, time.Second)

	assert.Equal(t, http.DefaultTransport, client.Transport)
	assert.Equal(t, time.Second, client.Timeout)
}
