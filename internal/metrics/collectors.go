package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for tracking registry and discovery behaviour
var (
	// Cache metrics
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaydex_cache_hits_total",
		Help: "The total number of lookups answered by the freshness cache",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaydex_cache_misses_total",
		Help: "The total number of lookups that missed the freshness cache",
	})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaydex_cache_evictions_total",
		Help: "The total number of entries evicted to respect the cache capacity",
	})

	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaydex_cache_entries",
		Help: "The number of entries currently held by the freshness cache",
	})

	// Lookup metrics
	Lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaydex_lookups_total",
		Help: "The total number of registry lookups by resolution path",
	}, []string{"path"}) // "cache", "store_fresh", "store_stale", "new"

	LookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relaydex_lookup_duration_seconds",
		Help:    "Registry lookup duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 10, 5), // 0.001, 0.01, 0.1, 1, 10
	})

	LookupsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaydex_lookups_in_flight",
		Help: "The number of lookups currently dispatched by the discovery consumer",
	})

	// Fetch metrics
	Fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaydex_fetches_total",
		Help: "The total number of NIP-11 fetches by outcome",
	}, []string{"outcome"}) // "fetched", "unavailable"

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relaydex_fetch_duration_seconds",
		Help:    "NIP-11 fetch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 6), // 0.01 .. ~10
	})

	// Store metrics
	DBOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaydex_db_operations_total",
		Help: "Total number of relay store operations by type",
	}, []string{"operation"})

	DBErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaydex_db_errors_total",
		Help: "Total number of relay store errors by operation",
	}, []string{"operation"})

	DBConnections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaydex_db_connections_total",
		Help: "Total number of database connection attempts by status",
	}, []string{"status"}) // "success", "failure", "closed"

	// Discovery metrics
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaydex_events_received_total",
		Help: "The total number of discovery events received by kind",
	}, []string{"kind"})

	DuplicateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaydex_duplicate_events_total",
		Help: "The total number of discovery events skipped as already seen",
	})

	InvalidEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaydex_invalid_events_total",
		Help: "The total number of discovery events rejected by signature verification",
	})

	Candidates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaydex_candidates_total",
		Help: "The total number of candidate relay urls extracted from events",
	})

	ConsumerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relaydex_consumer_state",
		Help: "1 for the current discovery consumer state, 0 otherwise",
	}, []string{"state"})

	// Error metrics
	ErrorsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaydex_errors_total",
		Help: "The total number of errors by type",
	}, []string{"type"})
)

// RegisterMetrics pre-registers the label values so dashboards see zeros
// instead of missing series.
func RegisterMetrics() {
	for _, path := range []string{LookupPathCache, LookupPathStoreFresh, LookupPathStoreStale, LookupPathNew} {
		Lookups.WithLabelValues(path)
	}

	for _, outcome := range []string{FetchOutcomeFetched, FetchOutcomeUnavailable} {
		Fetches.WithLabelValues(outcome)
	}

	for _, kind := range []string{"0", "10002"} {
		EventsReceived.WithLabelValues(kind)
	}

	for _, op := range []string{"get", "save", "update"} {
		DBOperations.WithLabelValues(op)
		DBErrors.WithLabelValues(op)
	}

	for _, status := range []string{"success", "failure", "closed"} {
		DBConnections.WithLabelValues(status)
	}

	for _, state := range []string{"connecting", "subscribed", "consuming", "stopped"} {
		ConsumerState.WithLabelValues(state)
	}

	for _, errType := range []string{"validation", "database", "network", "timeout", "internal", "external"} {
		ErrorsCount.WithLabelValues(errType)
	}
}

// Label values shared with the code that records them.
const (
	LookupPathCache      = "cache"
	LookupPathStoreFresh = "store_fresh"
	LookupPathStoreStale = "store_stale"
	LookupPathNew        = "new"

	FetchOutcomeFetched     = "fetched"
	FetchOutcomeUnavailable = "unavailable"
)

// SetConsumerState flips the state gauge so exactly one state reads 1.
func SetConsumerState(state string) {
	ConsumerState.Reset()
	ConsumerState.WithLabelValues(state).Set(1)
}
