package application

import (
	"context"
	"time"

	"github.com/Shugur-Network/relaydex/internal/cache"
	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/domain"
	"github.com/Shugur-Network/relaydex/internal/models"
)

// Config returns the node's configuration.
func (n *Node) Config() *config.Config {
	return n.config
}

// Database returns the store as seen by health checks, nil when not connected.
func (n *Node) Database() domain.DatabaseProbe {
	if n.db == nil {
		return nil
	}
	return n.db
}

// CacheStats returns the freshness cache counters.
func (n *Node) CacheStats() cache.Stats {
	return n.cache.Stats()
}

// DiscoveryState returns the consumer state, empty when discovery is disabled.
func (n *Node) DiscoveryState() string {
	if n.consumer == nil {
		return ""
	}
	return n.consumer.State().String()
}

// GetStartTime returns when the node was started (for health checks)
func (n *Node) GetStartTime() time.Time {
	return n.startTime
}

// Lookup resolves one relay through the registry.
func (n *Node) Lookup(ctx context.Context, url string) (*models.Relay, error) {
	return n.registry.Get(ctx, url)
}
