package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shugur-Network/relaydex/internal/domain"
	"github.com/Shugur-Network/relaydex/internal/logger"
	nostr "github.com/nbd-wtf/go-nostr"
	"go.uber.org/zap"
)

// PoolSource streams events from a set of seed relays through a go-nostr SimplePool.
type PoolSource struct {
	mu     sync.Mutex
	pool   *nostr.SimplePool
	cancel context.CancelFunc
	urls   []string
	log    *zap.Logger
}

// NewPoolSource returns an unconnected source.
func NewPoolSource() *PoolSource {
	return &PoolSource{log: logger.New("discovery_source")}
}

// Connect opens a connection to every seed. The pool outlives ctx; it is torn
// down by Close.
func (s *PoolSource) Connect(ctx context.Context, seeds []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool == nil {
		poolCtx, cancel := context.WithCancel(context.Background())
		s.pool = nostr.NewSimplePool(poolCtx, nostr.WithPenaltyBox())
		s.cancel = cancel
	}

	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.pool.EnsureRelay(seed); err != nil {
			return fmt.Errorf("connect to seed %s: %w", seed, err)
		}
		s.log.Info("Connected to seed relay", zap.String("relay", seed))
	}
	s.urls = append([]string(nil), seeds...)
	return nil
}

// Subscribe opens one subscription per connected seed and merges the results.
// Dropped connections are re-established by the pool while ctx is alive.
func (s *PoolSource) Subscribe(ctx context.Context, filter nostr.Filter) (*domain.Subscription, error) {
	s.mu.Lock()
	pool := s.pool
	urls := append([]string(nil), s.urls...)
	s.mu.Unlock()

	if pool == nil || len(urls) == 0 {
		return nil, fmt.Errorf("subscribe before connect")
	}

	eose := make(chan struct{})
	in := pool.SubscribeManyNotifyEOSE(ctx, urls, filter, eose)

	out := make(chan *nostr.Event)
	go func() {
		defer close(out)
		for ie := range in {
			if ie.Event == nil {
				continue
			}
			select {
			case out <- ie.Event:
			case <-ctx.Done():
				return
			}
		}
	}()

	// the pool also closes eose when it gives up on the relays at ctx end
	backfilled := make(chan struct{})
	go func() {
		select {
		case <-eose:
			if ctx.Err() == nil {
				s.log.Debug("Seeds finished sending stored events", zap.Int("seeds", len(urls)))
				close(backfilled)
			}
		case <-ctx.Done():
		}
	}()

	return &domain.Subscription{Events: out, Backfilled: backfilled}, nil
}

// Close drops every relay connection held by the pool.
func (s *PoolSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.pool = nil
	s.urls = nil
}
