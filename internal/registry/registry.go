package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Shugur-Network/relaydex/internal/cache"
	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/domain"
	apperrors "github.com/Shugur-Network/relaydex/internal/errors"
	"github.com/Shugur-Network/relaydex/internal/logger"
	"github.com/Shugur-Network/relaydex/internal/metrics"
	"github.com/Shugur-Network/relaydex/internal/models"
	"github.com/Shugur-Network/relaydex/internal/storage"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// ErrEmptyURL is returned by Get for an empty url.
var ErrEmptyURL = errors.New("relay url is empty")

// Registry resolves relay metadata through three tiers: the freshness cache,
// the durable store and a live fetch.
//
// Lookups of one url are serialized on a lock stripe chosen by hashing the url,
// so concurrent callers never fetch or insert the same relay twice. Distinct
// urls only contend when they hash onto the same stripe.
type Registry struct {
	cache     *cache.FreshnessCache
	store     domain.RelayStore
	fetcher   domain.MetadataFetcher
	staleness time.Duration
	stripes   []sync.Mutex
	now       func() time.Time
	log       *zap.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock replaces time.Now for staleness decisions.
func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// WithLockStripes sets the number of url lock stripes.
func WithLockStripes(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.stripes = make([]sync.Mutex, n)
		}
	}
}

// New wires a Registry over the given tiers.
func New(store domain.RelayStore, fetcher domain.MetadataFetcher, c *cache.FreshnessCache, cfg config.RegistryConfig, opts ...Option) *Registry {
	staleness := cfg.StalenessWindow
	if staleness <= 0 {
		staleness = constants.DefaultStalenessWindow
	}
	stripes := cfg.LockStripes
	if stripes <= 0 {
		stripes = constants.DefaultLockStripes
	}

	r := &Registry{
		cache:     c,
		store:     store,
		fetcher:   fetcher,
		staleness: staleness,
		stripes:   make([]sync.Mutex, stripes),
		now:       time.Now,
		log:       logger.New("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the metadata record for url.
//
// Fetch failures never surface here: the relay is recorded as a placeholder
// instead. Store failures other than not-found are returned as persistence errors.
func (r *Registry) Get(ctx context.Context, url string) (*models.Relay, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}
	start := time.Now()

	if relay, ok := r.cache.Get(url); ok {
		metrics.RecordLookup(metrics.LookupPathCache, time.Since(start))
		return relay, nil
	}

	mu := &r.stripes[r.stripeFor(url)]
	mu.Lock()
	defer mu.Unlock()

	// another lookup of the same url may have completed while we waited
	if relay, ok := r.cache.Peek(url); ok {
		metrics.RecordLookup(metrics.LookupPathCache, time.Since(start))
		return relay, nil
	}

	ctx = logger.WithRelay(ctx, url)
	stored, err := r.store.GetRelay(ctx, url)
	switch {
	case err == nil:
		if stored.UpdatedAt.After(r.now().Add(-r.staleness)) {
			r.cache.Set(url, stored)
			metrics.RecordLookup(metrics.LookupPathStoreFresh, time.Since(start))
			return stored, nil
		}
		relay, err := r.refresh(ctx, stored)
		if err == nil {
			metrics.RecordLookup(metrics.LookupPathStoreStale, time.Since(start))
		}
		return relay, err

	case errors.Is(err, storage.ErrRelayNotFound):
		relay, err := r.insert(ctx, url)
		if err == nil {
			metrics.RecordLookup(metrics.LookupPathNew, time.Since(start))
		}
		return relay, err

	default:
		return nil, apperrors.PersistenceError("get", url, err)
	}
}

// refresh fetches again for a stale record and overwrites its descriptive fields.
// Must be called with the url's stripe held.
func (r *Registry) refresh(ctx context.Context, stored *models.Relay) (*models.Relay, error) {
	res := r.fetcher.Fetch(ctx, stored.URL)

	relay := stored.Clone()
	relay.MergeFrom(res.Record())
	relay.UpdatedAt = r.now()
	relay.Seen = true

	if err := r.store.UpdateRelay(ctx, relay); err != nil {
		return nil, apperrors.PersistenceError("update", stored.URL, err)
	}
	r.cache.Set(relay.URL, relay)

	logger.FromContext(ctx).Debug("Refreshed stale relay",
		zap.Stringer("outcome", res.Outcome),
		zap.Bool("seen", relay.Seen))
	return relay, nil
}

// insert fetches a relay seen for the first time and stores it.
// Must be called with the url's stripe held.
func (r *Registry) insert(ctx context.Context, url string) (*models.Relay, error) {
	res := r.fetcher.Fetch(ctx, url)

	relay := res.Record()
	now := r.now()
	relay.CreatedAt, relay.UpdatedAt = now, now

	if err := r.store.SaveRelay(ctx, relay); err != nil {
		return nil, apperrors.PersistenceError("save", url, err)
	}
	r.cache.Set(url, relay)

	logger.FromContext(ctx).Debug("Registered new relay",
		zap.Stringer("outcome", res.Outcome),
		zap.Bool("seen", relay.Seen))
	return relay, nil
}

// Stats reports the cache tier counters.
func (r *Registry) Stats() cache.Stats {
	return r.cache.Stats()
}

func (r *Registry) stripeFor(url string) uint64 {
	return xxh3.HashString(url) % uint64(len(r.stripes))
}
