package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testConfig() config.FetcherConfig {
	return config.FetcherConfig{
		Timeout:      time.Second,
		UserAgent:    "relaydex-test",
		Burst:        10,
		MaxBodyBytes: 4096,
	}
}

func TestFetch_Success(t *testing.T) {
	var accept, ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/nostr+json")
		_, _ = w.Write([]byte(`{
			"name": "JellyFish",
			"description": "Stay Immortal!",
			"pubkey": "bf2bee5281149c7c350f5d12ae32f514c7864ff10805182f4178538c2c421007",
			"supported_nips": [1, 9, 11, 40],
			"software": "git+https://github.com/hoytech/strfry.git",
			"limitation": {"max_message_length": 70000, "payment_required": true},
			"fees": {"admission": [{"amount": 1000000, "unit": "msats"}]}
		}`))
	}))
	defer srv.Close()

	f := New(testConfig())
	res := f.Fetch(context.Background(), srv.URL)

	require.Equal(t, models.Fetched, res.Outcome)
	require.NoError(t, res.Cause)
	assert.Equal(t, "application/nostr+json", accept)
	assert.Equal(t, "relaydex-test", ua)

	r := res.Relay
	assert.Equal(t, srv.URL, r.URL)
	assert.Equal(t, "JellyFish", r.Name)
	assert.Equal(t, []int{1, 9, 11, 40}, r.SupportedNIPs)
	assert.True(t, *r.Limitation.PaymentRequired)
	assert.Equal(t, 1000000, r.Fees["admission"][0].Amount)
	assert.True(t, r.Seen)
}

func TestFetch_DocumentCannotOverrideIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url": "https://evil.example.com", "seen": false, "name": "x"}`))
	}))
	defer srv.Close()

	res := New(testConfig()).Fetch(context.Background(), srv.URL)
	require.Equal(t, models.Fetched, res.Outcome)
	assert.Equal(t, srv.URL, res.Relay.URL)
	assert.True(t, res.Relay.Seen)
}

func TestFetch_Unavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"not found": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"html": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>Please use a Nostr client to connect.</html>`))
		},
		"wrong shape": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"supported_nips": "all of them"}`))
		},
		"too large": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"description": "` + strings.Repeat("a", 8192) + `"}`))
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			res := New(testConfig()).Fetch(context.Background(), srv.URL)
			assert.Equal(t, models.Unavailable, res.Outcome)
			assert.Error(t, res.Cause)
			assert.Nil(t, res.Relay)
			assert.Equal(t, srv.URL, res.URL)
		})
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(testConfig()).Fetch(context.Background(), url)
	assert.Equal(t, models.Unavailable, res.Outcome)
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	res := New(cfg).Fetch(context.Background(), srv.URL)
	assert.Equal(t, models.Unavailable, res.Outcome)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetch_NoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	New(testConfig()).Fetch(context.Background(), srv.URL)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_LimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	// one token, refilled once per hour
	f := New(testConfig(), WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))
	require.Equal(t, models.Fetched, f.Fetch(context.Background(), srv.URL).Outcome)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := f.Fetch(ctx, srv.URL)
	assert.Equal(t, models.Unavailable, res.Outcome)
}

func TestNew_Defaults(t *testing.T) {
	f := New(config.FetcherConfig{})
	assert.Equal(t, rate.Inf, f.limiter.Limit())
	assert.Positive(t, f.maxBody)
	assert.Positive(t, f.timeout)
	assert.NotEmpty(t, f.userAgent)
}
