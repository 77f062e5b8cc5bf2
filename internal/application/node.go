package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Shugur-Network/relaydex/internal/cache"
	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/discovery"
	"github.com/Shugur-Network/relaydex/internal/domain"
	"github.com/Shugur-Network/relaydex/internal/errors"
	"github.com/Shugur-Network/relaydex/internal/health"
	"github.com/Shugur-Network/relaydex/internal/logger"
	"github.com/Shugur-Network/relaydex/internal/registry"
	"github.com/Shugur-Network/relaydex/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Node ties together the registry, its store and the discovery consumer.
type Node struct {
	ctx    context.Context
	cancel context.CancelFunc

	config   *config.Config
	db       *storage.DB
	cache    *cache.FreshnessCache
	registry *registry.Registry
	consumer *discovery.Consumer

	metricsServer *http.Server
	wg            sync.WaitGroup
	shutdownOnce  sync.Once
	startTime     time.Time
}

// Ensure Node implements domain.NodeInterface
var _ domain.NodeInterface = (*Node)(nil)

// New creates and configures a Node using the NodeBuilder pattern.
func New(ctx context.Context, cfg *config.Config) (*Node, error) {
	builder := NewNodeBuilder(ctx, cfg)

	if err := builder.BuildDB(); err != nil {
		builder.Abort()
		return nil, fmt.Errorf("failed building db: %w", err)
	}
	if err := builder.BuildRegistry(); err != nil {
		builder.Abort()
		return nil, fmt.Errorf("failed building registry: %w", err)
	}
	if err := builder.BuildDiscovery(); err != nil {
		builder.Abort()
		return nil, fmt.Errorf("failed building discovery: %w", err)
	}

	node, err := builder.Build()
	if err != nil {
		builder.Abort()
		return nil, fmt.Errorf("failed to build node: %w", err)
	}
	return node, nil
}

// Start launches the background loops: cache janitor, metrics/health listener
// and, when enabled, the discovery consumer. Joining the seed relays happens
// before Start returns so that a seed failure is reported as a startup error.
func (n *Node) Start(ctx context.Context) error {
	n.startTime = time.Now()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.cache.RunJanitor(n.ctx, constants.CacheJanitorInterval)
	}()

	if n.config.Metrics.Enabled {
		if err := n.startMetricsServer(); err != nil {
			return errors.StartupError("metrics", err)
		}
	}

	if n.consumer != nil {
		if err := n.consumer.Connect(ctx); err != nil {
			return err
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.runDiscovery()
		}()
	}

	logger.Debug("Node started")
	return nil
}

// runDiscovery keeps the relay list subscription alive. Each resubscription
// resumes from the newest event already processed.
func (n *Node) runDiscovery() {
	log := logger.New("discovery")
	delay := n.config.Discovery.ResubscribeDelay
	if delay <= 0 {
		delay = constants.DefaultResubscribeDelay
	}

	for {
		err := n.consumer.Run(n.ctx)
		if n.ctx.Err() != nil {
			return
		}
		switch {
		case stderrors.Is(err, discovery.ErrStreamClosed):
			log.Warn("Relay list stream closed, resubscribing", zap.Duration("delay", delay))
		case errors.IsRecoverable(err):
			errors.Report(log, err)
		default:
			errors.Report(log, err)
			log.Error("Discovery stopped, lookups are still served")
			return
		}

		select {
		case <-n.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (n *Node) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", health.NewHealthChecker(n, logger.New("node"), config.Version).HandleHealth)

	addr := net.JoinHostPort("", strconv.Itoa(n.config.Metrics.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	n.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := n.metricsServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()
	logger.Info("Metrics and health listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Shutdown gracefully shuts down the node. It is safe to call more than once.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(n.shutdown)
}

func (n *Node) shutdown() {
	logger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var shutdownErrors []error

	// Step 1: stop serving metrics and health
	if n.metricsServer != nil {
		msCtx, msCancel := context.WithTimeout(shutdownCtx, constants.MetricsShutdownTimeout)
		if err := n.metricsServer.Shutdown(msCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server: %w", err))
		}
		msCancel()
	}

	// Step 2: cancel the node context, which ends discovery and the janitor
	if n.cancel != nil {
		n.cancel()
	}

	// Step 3: wait for the background loops, in-flight lookups included
	done := make(chan struct{})
	go func() {
		defer close(done)
		n.wg.Wait()
	}()
	select {
	case <-done:
		logger.Debug("Background loops finished")
	case <-shutdownCtx.Done():
		shutdownErrors = append(shutdownErrors, fmt.Errorf("background loops timed out after %v", constants.ShutdownTimeout))
	}

	if n.consumer != nil {
		n.consumer.Close()
	}

	// Step 4: close the store
	if n.db != nil {
		if err := n.shutdownDatabase(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, err)
		}
	}

	if len(shutdownErrors) > 0 {
		logger.Warn("Node shutdown completed with errors",
			zap.Int("error_count", len(shutdownErrors)),
			zap.Errors("errors", shutdownErrors))
	} else {
		logger.Info("Node shutdown completed successfully")
	}
}

// shutdownDatabase closes the database connection with timeout and retry logic.
func (n *Node) shutdownDatabase(ctx context.Context) error {
	var lastErr error

	for i := 0; i < constants.MaxDBRetries; i++ {
		if err := n.db.CloseDB(); err != nil {
			lastErr = err
			logger.Warn("Failed to close database, retrying...",
				zap.Int("attempt", i+1),
				zap.Int("max_attempts", constants.MaxDBRetries),
				zap.Error(err))

			select {
			case <-time.After(constants.DBRetryDelay * time.Second):
				continue
			case <-ctx.Done():
				return fmt.Errorf("database shutdown timed out during retry delay: %w", ctx.Err())
			}
		}
		return nil
	}

	return fmt.Errorf("database shutdown failed after %d retries: %w", constants.MaxDBRetries, lastErr)
}
