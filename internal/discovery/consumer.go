package discovery

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/domain"
	"github.com/Shugur-Network/relaydex/internal/errors"
	"github.com/Shugur-Network/relaydex/internal/logger"
	"github.com/Shugur-Network/relaydex/internal/metrics"
	"github.com/Shugur-Network/relaydex/internal/workers"
	nostr "github.com/nbd-wtf/go-nostr"
	"github.com/willf/bloom"
	"go.uber.org/zap"
)

// ErrStreamClosed is returned by Run when the event source closes the
// subscription while the caller's context is still alive.
var ErrStreamClosed = stderrors.New("discovery: event stream closed")

// State is the lifecycle position of the consumer.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateSubscribed
	StateConsuming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateConsuming:
		return "consuming"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Consumer follows relay list events from the seed relays and resolves every
// relay URL they mention through a RelayLookup.
type Consumer struct {
	source   domain.EventSource
	lookup   domain.RelayLookup
	pool     *workers.Pool
	seeds    []string
	lookback time.Duration
	verify   bool
	now      func() time.Time
	log      *zap.Logger

	state     atomic.Int32
	connected bool
	started   time.Time

	// newest is the resume point. It only takes the value of observed once the
	// current subscription has been backfilled.
	newest     atomic.Int64
	observed   atomic.Int64
	backfilled atomic.Bool

	seenMu sync.Mutex
	seen   *bloom.BloomFilter
}

// Option customizes a Consumer.
type Option func(*Consumer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Consumer) { c.now = now } }

// WithPool replaces the lookup fan-out pool.
func WithPool(p *workers.Pool) Option { return func(c *Consumer) { c.pool = p } }

// New builds a consumer that reads from source and resolves candidates through lookup.
func New(source domain.EventSource, lookup domain.RelayLookup, cfg config.DiscoveryConfig, opts ...Option) *Consumer {
	c := &Consumer{
		source:   source,
		lookup:   lookup,
		seeds:    cfg.Seeds,
		lookback: cfg.Lookback,
		verify:   cfg.VerifySignatures,
		now:      time.Now,
		log:      logger.New("discovery"),
		seen:     bloom.NewWithEstimates(constants.SeenEventsBloomCapacity, constants.SeenEventsBloomFPRate),
	}
	if len(c.seeds) == 0 {
		c.seeds = constants.DefaultSeedRelays
	}
	if c.lookback <= 0 {
		c.lookback = constants.DefaultLookback
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		size := cfg.MaxInFlight
		if size <= 0 {
			size = constants.DefaultMaxInFlight
		}
		c.pool = workers.NewPool(size)
	}
	c.started = c.now()
	return c
}

// State returns the current lifecycle state.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	if State(c.state.Swap(int32(s))) != s {
		metrics.SetConsumerState(s.String())
		c.log.Debug("Consumer state changed", zap.String("state", s.String()))
	}
}

// ResumeFilter is the subscription filter for relay list events. Since starts
// at the lookback horizon and moves forward to the newest accepted event once
// the seeds have delivered every stored event. Relays replay newest first, so
// an interrupted backfill is requested again from the previous since.
func (c *Consumer) ResumeFilter() nostr.Filter {
	since := c.started.Add(-c.lookback).Unix()
	if newest := c.newest.Load(); newest > since {
		since = newest
	}
	ts := nostr.Timestamp(since)
	return nostr.Filter{
		Kinds: []int{KindRelayList},
		Since: &ts,
	}
}

// Connect joins the seed relays. It is a no-op once it has succeeded.
// A seed connection failure is returned as a startup error.
func (c *Consumer) Connect(ctx context.Context) error {
	if c.connected {
		return nil
	}
	c.setState(StateConnecting)
	if err := c.source.Connect(ctx, c.seeds); err != nil {
		c.setState(StateStopped)
		return errors.StartupError("discovery", err)
	}
	c.connected = true
	return nil
}

// Run subscribes and processes events until ctx is done or the stream closes,
// connecting first if Connect was not called. In-flight lookups are drained
// before it returns.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	filter := c.ResumeFilter()
	c.backfilled.Store(false)
	c.observed.Store(0)
	sub, err := c.source.Subscribe(ctx, filter)
	if err != nil {
		c.setState(StateStopped)
		return errors.Wrap(err, errors.ErrorTypeNetwork, "SUBSCRIBE_FAILED", "Relay list subscription failed")
	}
	c.setState(StateSubscribed)
	c.log.Info("Subscribed to relay lists",
		zap.Strings("seeds", c.seeds),
		zap.Int64("since", int64(*filter.Since)))

	defer func() {
		c.pool.Wait()
		c.setState(StateStopped)
	}()

	backfilled := sub.Backfilled
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-backfilled:
			backfilled = nil
			c.MarkBackfilled()
		case evt, ok := <-sub.Events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrStreamClosed
			}
			c.setState(StateConsuming)
			if err := c.HandleEvent(ctx, evt); err != nil {
				return err
			}
		}
	}
}

// HandleEvent dispatches a lookup for every relay URL in evt. It blocks while
// the fan-out is saturated and only fails when ctx ends.
func (c *Consumer) HandleEvent(ctx context.Context, evt *nostr.Event) error {
	if evt == nil {
		return nil
	}
	metrics.RecordEvent(strconv.Itoa(evt.Kind))

	if c.alreadySeen(evt.ID) {
		metrics.DuplicateEvents.Inc()
		return nil
	}
	if c.verify && !VerifyEvent(evt) {
		metrics.InvalidEvents.Inc()
		c.log.Debug("Dropping event with invalid signature",
			zap.String("event_id", evt.ID),
			zap.Int("kind", evt.Kind))
		return nil
	}
	c.markSeen(evt.ID)
	c.observe(evt.CreatedAt)

	for _, url := range Extract(evt) {
		metrics.Candidates.Inc()
		if err := c.dispatch(ctx, url); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, url string) error {
	return c.pool.Submit(ctx, func(ctx context.Context) {
		metrics.IncrementInFlight()
		defer metrics.DecrementInFlight()

		if _, err := c.lookup.Get(logger.WithRelay(ctx, url), url); err != nil {
			errors.Report(c.log, err)
		}
	})
}

func (c *Consumer) alreadySeen(id string) bool {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	return c.seen.TestString(id)
}

func (c *Consumer) markSeen(id string) {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	c.seen.AddString(id)
}

// MarkBackfilled records that the current subscription has received every
// stored event, which lets the resume point advance.
func (c *Consumer) MarkBackfilled() {
	c.backfilled.Store(true)
	c.commit()
	c.log.Debug("Relay list backfill complete", zap.Int64("resume_since", int64(*c.ResumeFilter().Since)))
}

// observe tracks the newest accepted event. Timestamps from the future are ignored.
func (c *Consumer) observe(ts nostr.Timestamp) {
	created := int64(ts)
	if created > c.now().Unix() {
		return
	}
	storeMax(&c.observed, created)
	if c.backfilled.Load() {
		c.commit()
	}
}

func (c *Consumer) commit() {
	storeMax(&c.newest, c.observed.Load())
}

func storeMax(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n <= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Close releases the event source.
func (c *Consumer) Close() {
	c.source.Close()
	c.setState(StateStopped)
}
