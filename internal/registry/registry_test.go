package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shugur-Network/relaydex/internal/cache"
	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/domain/mock"
	apperrors "github.com/Shugur-Network/relaydex/internal/errors"
	"github.com/Shugur-Network/relaydex/internal/models"
	"github.com/Shugur-Network/relaydex/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const relayURL = "https://relay.example.com"

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	registry *Registry
	store    *mock.MockRelayStore
	fetcher  *mock.MockMetadataFetcher
	cache    *cache.FreshnessCache
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	ctrl := gomock.NewController(t)
	store := mock.NewMockRelayStore(ctrl)
	fetcher := mock.NewMockMetadataFetcher(ctrl)
	c := cache.New(500, 6*time.Hour)

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	r := New(store, fetcher, c, config.RegistryConfig{
		CacheCapacity:   500,
		CacheLifespan:   6 * time.Hour,
		StalenessWindow: 12 * time.Hour,
		LockStripes:     256,
	}, opts...)

	return &fixture{registry: r, store: store, fetcher: fetcher, cache: c}
}

func fetched(url, name string) models.FetchResult {
	return models.NewFetched(url, &models.Relay{URL: url, Name: name, SupportedNIPs: []int{1, 11}})
}

func TestGet_EmptyURL(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyURL)
	assert.Zero(t, f.cache.Len())
}

func TestGet_CacheHitSkipsStoreAndFetch(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(relayURL, &models.Relay{URL: relayURL, Name: "cached", Seen: true})

	// no EXPECT: any store or fetch call fails the test
	got, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Name)
}

func TestGet_MissIsCountedOnce(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(nil, storage.ErrRelayNotFound)
	f.fetcher.EXPECT().Fetch(gomock.Any(), relayURL).Return(fetched(relayURL, "new"))
	f.store.EXPECT().SaveRelay(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	_, err = f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)

	st := f.registry.Stats()
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, int64(1), st.Hits)
}

func TestGet_FreshStoreRecordIsCachedWithoutFetch(t *testing.T) {
	f := newFixture(t)
	stored := &models.Relay{
		URL:       relayURL,
		Name:      "stored",
		CreatedAt: testNow.Add(-48 * time.Hour),
		UpdatedAt: testNow.Add(-12*time.Hour + time.Second),
		Seen:      true,
	}
	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(stored.Clone(), nil).Times(1)

	first, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	assert.Equal(t, stored, first)

	second, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGet_StaleAtExactlyTwelveHours(t *testing.T) {
	f := newFixture(t)
	created := testNow.Add(-72 * time.Hour)
	stored := &models.Relay{
		URL:       relayURL,
		Name:      "old",
		Icon:      "https://relay.example.com/icon.png",
		CreatedAt: created,
		UpdatedAt: testNow.Add(-12 * time.Hour),
		Seen:      false,
	}

	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(stored, nil)
	f.fetcher.EXPECT().Fetch(gomock.Any(), relayURL).Return(fetched(relayURL, "new")).Times(1)
	f.store.EXPECT().UpdateRelay(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *models.Relay) error {
			assert.Equal(t, "new", r.Name)
			assert.Empty(t, r.Icon, "descriptive fields are overwritten, not merged")
			assert.Equal(t, created, r.CreatedAt)
			assert.Equal(t, testNow, r.UpdatedAt)
			assert.True(t, r.Seen)
			return nil
		}).Times(1)

	got, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, []int{1, 11}, got.SupportedNIPs)

	cached, ok := f.cache.Get(relayURL)
	require.True(t, ok)
	assert.Equal(t, got, cached)
}

func TestGet_StaleRefreshUnavailableSetsSeen(t *testing.T) {
	f := newFixture(t)
	stored := &models.Relay{
		URL:       relayURL,
		Name:      "never answered",
		UpdatedAt: testNow.Add(-13 * time.Hour),
		Seen:      false,
	}

	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(stored, nil)
	f.fetcher.EXPECT().Fetch(gomock.Any(), relayURL).Return(models.NewUnavailable(relayURL, errors.New("refused")))
	f.store.EXPECT().UpdateRelay(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *models.Relay) error {
			assert.True(t, r.IsPlaceholder())
			assert.True(t, r.Seen)
			assert.Equal(t, testNow, r.UpdatedAt)
			return nil
		})

	got, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	assert.Equal(t, relayURL, got.URL)
	assert.True(t, got.Seen)
}

func TestGet_NewRelayFetchFailureStoresPlaceholderOnce(t *testing.T) {
	f := newFixture(t)

	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(nil, storage.ErrRelayNotFound).Times(1)
	f.fetcher.EXPECT().Fetch(gomock.Any(), relayURL).
		Return(models.NewUnavailable(relayURL, errors.New("timeout"))).Times(1)
	f.store.EXPECT().SaveRelay(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *models.Relay) error {
			assert.Equal(t, relayURL, r.URL)
			assert.False(t, r.Seen)
			assert.True(t, r.IsPlaceholder())
			return nil
		}).Times(1)

	got, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	assert.Equal(t, relayURL, got.URL)
	assert.False(t, got.Seen)
	assert.True(t, got.IsPlaceholder())

	again, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestGet_NewRelayFetched(t *testing.T) {
	f := newFixture(t)

	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(nil, storage.ErrRelayNotFound)
	f.fetcher.EXPECT().Fetch(gomock.Any(), relayURL).Return(fetched(relayURL, "JellyFish"))
	f.store.EXPECT().SaveRelay(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *models.Relay) error {
			assert.True(t, r.Seen)
			assert.Equal(t, "JellyFish", r.Name)
			assert.Equal(t, testNow, r.CreatedAt)
			return nil
		})

	got, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)
	assert.Equal(t, "JellyFish", got.Name)
	assert.True(t, got.Seen)
}

func TestGet_StoreReadFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("connection reset")
	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(nil, cause)

	_, err := f.registry.Get(context.Background(), relayURL)
	require.ErrorIs(t, err, cause)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeDatabase, appErr.Type)
	assert.Zero(t, f.cache.Len(), "nothing is cached on failure")
}

func TestGet_StoreWriteFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(nil, storage.ErrRelayNotFound)
	f.fetcher.EXPECT().Fetch(gomock.Any(), relayURL).Return(fetched(relayURL, "x"))
	f.store.EXPECT().SaveRelay(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := f.registry.Get(context.Background(), relayURL)
	require.Error(t, err)
	_, ok := f.cache.Get(relayURL)
	assert.False(t, ok)
}

func TestGet_ConcurrentSameURLFetchesOnce(t *testing.T) {
	f := newFixture(t)
	var fetches atomic.Int32

	f.store.EXPECT().GetRelay(gomock.Any(), relayURL).Return(nil, storage.ErrRelayNotFound).Times(1)
	f.fetcher.EXPECT().Fetch(gomock.Any(), relayURL).DoAndReturn(
		func(_ context.Context, url string) models.FetchResult {
			fetches.Add(1)
			time.Sleep(50 * time.Millisecond)
			return fetched(url, "once")
		}).Times(1)
	f.store.EXPECT().SaveRelay(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup
	results := make([]*models.Relay, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.registry.Get(context.Background(), relayURL)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "once", r.Name)
	}
}

func TestGet_DistinctURLsProceedInParallel(t *testing.T) {
	f := newFixture(t, WithLockStripes(1024))

	a := "https://a.example.com"
	b := ""
	for i := 0; b == ""; i++ {
		candidate := fmt.Sprintf("https://b%d.example.com", i)
		if f.registry.stripeFor(candidate) != f.registry.stripeFor(a) {
			b = candidate
		}
	}

	var started sync.WaitGroup
	started.Add(2)
	bothStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(bothStarted)
	}()

	f.store.EXPECT().GetRelay(gomock.Any(), gomock.Any()).Return(nil, storage.ErrRelayNotFound).Times(2)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, url string) models.FetchResult {
			started.Done()
			select {
			case <-bothStarted:
				return fetched(url, "parallel")
			case <-time.After(2 * time.Second):
				return models.NewUnavailable(url, errors.New("fetches did not overlap"))
			}
		}).Times(2)
	f.store.EXPECT().SaveRelay(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	var wg sync.WaitGroup
	for _, u := range []string{a, b} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			r, err := f.registry.Get(context.Background(), u)
			assert.NoError(t, err)
			assert.Equal(t, "parallel", r.Name)
		}(u)
	}
	wg.Wait()
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(relayURL, &models.Relay{URL: relayURL})
	_, err := f.registry.Get(context.Background(), relayURL)
	require.NoError(t, err)

	s := f.registry.Stats()
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, int64(1), s.Hits)
}
