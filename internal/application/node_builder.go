package application

import (
	"context"
	"fmt"

	"github.com/Shugur-Network/relaydex/internal/cache"
	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/discovery"
	"github.com/Shugur-Network/relaydex/internal/errors"
	"github.com/Shugur-Network/relaydex/internal/fetcher"
	"github.com/Shugur-Network/relaydex/internal/logger"
	"github.com/Shugur-Network/relaydex/internal/metrics"
	"github.com/Shugur-Network/relaydex/internal/registry"
	"github.com/Shugur-Network/relaydex/internal/storage"

	"go.uber.org/zap"
)

// NodeBuilder is used to incrementally construct a Node instance.
type NodeBuilder struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	database *storage.DB
	cache    *cache.FreshnessCache
	fetcher  *fetcher.Fetcher
	registry *registry.Registry
	source   *discovery.PoolSource
	consumer *discovery.Consumer
}

// NewNodeBuilder creates a new NodeBuilder with its own cancelable context.
func NewNodeBuilder(ctx context.Context, cfg *config.Config) *NodeBuilder {
	c, cancel := context.WithCancel(ctx)
	return &NodeBuilder{
		ctx:    c,
		cancel: cancel,
		config: cfg,
	}
}

// BuildDB connects to the metadata store, provisioning the database and schema
// on first run. Any failure here is a startup error.
func (b *NodeBuilder) BuildDB() error {
	dbName := b.config.Database.Name
	if dbName == "" {
		dbName = constants.DatabaseName
	}

	uris, err := storage.BuildConnectionURIs(b.config.Database, dbName)
	if err != nil {
		return errors.StartupError("database", err)
	}
	logger.Info("Building database connection",
		zap.String("db", dbName),
		zap.Bool("secure", uris.Secure),
		zap.Bool("url_mode", b.config.Database.URL != ""))

	// Optionally connect to default DB to create the target DB (only when DefaultURI is set).
	if uris.DefaultURI != "" && uris.DefaultURI != uris.TargetURI {
		logger.Info("Connecting to default database to check/create target database...")
		defaultConn, err := storage.InitDB(b.ctx, uris.DefaultURI, 1)
		if err != nil {
			logger.Warn("Connection to default database failed; skipping create step (assuming provisioned).", zap.Error(err))
		} else {
			if err := defaultConn.CreateDatabaseIfNotExists(b.ctx, dbName); err != nil {
				logger.Warn("CreateDatabaseIfNotExists failed; continuing (database may already exist or insufficient privileges).", zap.Error(err))
			}
			if err := defaultConn.CloseDB(); err != nil {
				logger.Warn("Failed to close default database connection", zap.Error(err))
			}
		}
	}

	logger.Info("Connecting to target database...", zap.String("db", dbName))
	dbConn, err := storage.InitDB(b.ctx, uris.TargetURI, b.config.Database.MaxConns)
	if err != nil {
		return errors.DatabaseConnectionError(fmt.Errorf("connect to %s: %w", dbName, err))
	}
	b.database = dbConn

	if err := dbConn.InitializeSchema(b.ctx); err != nil {
		logger.Error("Failed to initialize database schema", zap.Error(err))
		return errors.StartupError("database", err)
	}
	if err := dbConn.VerifySchema(b.ctx); err != nil {
		logger.Error("Database schema verification failed", zap.Error(err))
		return errors.StartupError("database", err)
	}

	if total, seen, err := dbConn.CountRelays(b.ctx); err != nil {
		logger.Warn("Failed to count stored relays", zap.Error(err))
	} else {
		logger.Info("Metadata store ready",
			zap.Int64("relays", total),
			zap.Int64("seen", seen))
	}
	return nil
}

// BuildRegistry sets up the cache, the fetcher and the registry on top of the store.
func (b *NodeBuilder) BuildRegistry() error {
	if b.database == nil {
		return fmt.Errorf("database must be built before the registry")
	}
	rc := b.config.Registry
	b.cache = cache.New(rc.CacheCapacity, rc.CacheLifespan)
	b.fetcher = fetcher.New(b.config.Fetcher)
	b.registry = registry.New(b.database, b.fetcher, b.cache, rc)

	logger.Info("Registry initialized",
		zap.Int("cache_capacity", rc.CacheCapacity),
		zap.Duration("cache_lifespan", rc.CacheLifespan),
		zap.Duration("staleness_window", rc.StalenessWindow),
		zap.Int("lock_stripes", rc.LockStripes))
	return nil
}

// BuildDiscovery sets up the relay list consumer when discovery is enabled.
func (b *NodeBuilder) BuildDiscovery() error {
	if !b.config.Discovery.Enabled {
		logger.Info("Discovery disabled")
		return nil
	}
	if b.registry == nil {
		return fmt.Errorf("registry must be built before discovery")
	}
	b.source = discovery.NewPoolSource()
	b.consumer = discovery.New(b.source, b.registry, b.config.Discovery)
	return nil
}

// Build finalizes the node construction.
func (b *NodeBuilder) Build() (*Node, error) {
	if b.database == nil {
		return nil, fmt.Errorf("database must be built before calling Build()")
	}
	if b.registry == nil {
		return nil, fmt.Errorf("registry must be built before calling Build()")
	}
	if b.config.Discovery.Enabled && b.consumer == nil {
		return nil, fmt.Errorf("discovery must be built before calling Build()")
	}

	metrics.RegisterMetrics()

	return &Node{
		ctx:      b.ctx,
		cancel:   b.cancel,
		config:   b.config,
		db:       b.database,
		cache:    b.cache,
		registry: b.registry,
		consumer: b.consumer,
	}, nil
}

// Abort releases whatever was built so far. Used when a later step fails.
func (b *NodeBuilder) Abort() {
	b.cancel()
	if b.database != nil {
		if err := b.database.CloseDB(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}
}
