package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/errors"
	"github.com/Shugur-Network/relaydex/internal/logger"
	"github.com/Shugur-Network/relaydex/internal/metrics"
	"github.com/Shugur-Network/relaydex/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Fetcher retrieves NIP-11 relay information documents over HTTP.
// A single attempt is made per call; failures come back as Unavailable results.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
	timeout   time.Duration
	log       *zap.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithLimiter replaces the limiter built from config.
func WithLimiter(l *rate.Limiter) Option { return func(f *Fetcher) { f.limiter = l } }

// New builds a Fetcher from config.
func New(cfg config.FetcherConfig, opts ...Option) *Fetcher {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	f := &Fetcher{
		client:    &http.Client{},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		timeout:   cfg.Timeout,
		log:       logger.New("fetcher"),
	}
	if f.userAgent == "" {
		f.userAgent = constants.DefaultFetchUserAgent
	}
	if f.maxBody <= 0 {
		f.maxBody = constants.MaxRelayInfoBodyBytes
	}
	if f.timeout <= 0 {
		f.timeout = constants.DefaultFetchTimeout
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests the information document published at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) models.FetchResult {
	start := time.Now()
	relay, err := f.fetch(ctx, url)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Fetches.WithLabelValues(metrics.FetchOutcomeUnavailable).Inc()
		errors.Report(f.log, errors.FetchError(url, err))
		return models.NewUnavailable(url, err)
	}

	metrics.Fetches.WithLabelValues(metrics.FetchOutcomeFetched).Inc()
	f.log.Debug("Fetched relay information",
		zap.String("relay", url),
		zap.String("name", relay.Name),
		zap.Duration("took", time.Since(start)))
	return models.NewFetched(url, relay)
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*models.Relay, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", constants.RelayInfoMediaType)
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBody))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("information document exceeds %d bytes", f.maxBody)
	}

	var relay models.Relay
	if err := json.Unmarshal(body, &relay); err != nil {
		return nil, fmt.Errorf("decode information document: %w", err)
	}

	// Identity and bookkeeping come from us, never from the document.
	relay.URL = url
	relay.CreatedAt = time.Time{}
	relay.UpdatedAt = time.Time{}
	relay.Seen = true
	return &relay, nil
}
