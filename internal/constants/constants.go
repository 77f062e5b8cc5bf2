package constants

import "time"

// Database constants
const (
	DatabaseName = "relaydex"
	RelaysTable  = "relays"
)

// Database pool sizing. The registry issues at most one store call per in-flight lookup,
// so the pool only has to cover the discovery fan-out plus CLI/health traffic.
const (
	DBPoolMaxConns       = 20
	DBPoolMinConns       = 2
	DBConnMaxLifetime    = 30 * time.Minute
	DBConnMaxIdleTime    = 5 * time.Minute
	DBConnAcquireTimeout = 10 * time.Second
	DBConnectAttempts    = 5
	DBConnectBackoff     = 2 * time.Second
	DBQueryTimeout       = 5 * time.Second
	MaxDBRetries         = 3
	DBRetryDelay         = 1 // seconds
)

// Registry defaults
const (
	DefaultCacheCapacity   = 500
	DefaultCacheLifespan   = 6 * time.Hour
	DefaultStalenessWindow = 12 * time.Hour
	DefaultLockStripes     = 256
	CacheJanitorInterval   = 10 * time.Minute
)

// Fetcher defaults
const (
	RelayInfoMediaType    = "application/nostr+json"
	DefaultFetchTimeout   = 10 * time.Second
	MaxRelayInfoBodyBytes = 1 << 20
	DefaultFetchUserAgent = "relaydex"
)

// Discovery defaults
const (
	// DefaultLookback is how far back the relay list subscription reaches on startup.
	DefaultLookback         = 14 * 24 * time.Hour
	DefaultMaxInFlight      = 15
	DefaultResubscribeDelay = 30 * time.Second
	SeenEventsBloomCapacity = 1_000_000
	SeenEventsBloomFPRate   = 0.001
)

// DefaultSeedRelays are the bootstrap endpoints used to join the event stream.
var DefaultSeedRelays = []string{
	"wss://no.str.cr",
	"wss://nostr.bitcoiner.social",
	"wss://relay.snort.social",
	"wss://relay.damus.io",
}

// HTTP / health
const (
	HealthCheckTimeout     = 5 // seconds
	MetricsShutdownTimeout = 5 * time.Second
	ShutdownTimeout        = 30 * time.Second
)
