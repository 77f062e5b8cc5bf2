package domain

import (
	"context"
	"time"

	"github.com/Shugur-Network/relaydex/internal/cache"
	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/storage"
)

// DatabaseProbe is what health reporting needs from the store.
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	Stats() storage.DatabaseStats
	CountRelays(ctx context.Context) (total, seen int64, err error)
}

// NodeInterface defines what operational endpoints can observe about a running node.
type NodeInterface interface {
	Config() *config.Config
	Database() DatabaseProbe
	CacheStats() cache.Stats
	// DiscoveryState is empty when discovery is disabled.
	DiscoveryState() string
	GetStartTime() time.Time
}
