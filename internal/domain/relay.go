package domain

//go:generate mockgen -destination=mock/mock_domain.go -package=mock github.com/Shugur-Network/relaydex/internal/domain RelayStore,MetadataFetcher,RelayLookup,EventSource

import (
	"context"

	"github.com/Shugur-Network/relaydex/internal/models"
	nostr "github.com/nbd-wtf/go-nostr"
)

// RelayStore is the durable tier of the registry.
type RelayStore interface {
	// GetRelay returns storage.ErrRelayNotFound when url has no row.
	GetRelay(ctx context.Context, url string) (*models.Relay, error)
	// SaveRelay inserts a new row and fills CreatedAt/UpdatedAt.
	SaveRelay(ctx context.Context, relay *models.Relay) error
	// UpdateRelay overwrites descriptive fields and marks the relay seen.
	UpdateRelay(ctx context.Context, relay *models.Relay) error
}

// MetadataFetcher retrieves a relay's published information document.
// It never fails: problems are reported through an Unavailable result.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) models.FetchResult
}

// RelayLookup resolves a relay url to its metadata record.
type RelayLookup interface {
	Get(ctx context.Context, url string) (*models.Relay, error)
}

// Subscription is a live event stream from the connected seeds.
type Subscription struct {
	// Events is closed when the subscription context is done or every seed
	// connection is lost.
	Events <-chan *nostr.Event
	// Backfilled is closed once every seed has delivered the stored events
	// matching the filter. It stays open if the stream ends first.
	Backfilled <-chan struct{}
}

// EventSource is a connection to a set of relays that can stream events.
type EventSource interface {
	// Connect dials every seed and fails if any of them cannot be reached.
	Connect(ctx context.Context, seeds []string) error
	// Subscribe streams events matching filter from all connected seeds.
	Subscribe(ctx context.Context, filter nostr.Filter) (*Subscription, error)
	Close()
}
